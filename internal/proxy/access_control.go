package proxy

import (
	"context"
	"errors"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/repository"
	pulse_errors "civic-pulse/pkg/errors"
)

// AccessControl answers who may moderate a poll: its creator or an admin.
type AccessControl struct {
	userRepo repository.UserRepository
}

func NewAccessControl(userRepo repository.UserRepository) *AccessControl {
	return &AccessControl{userRepo: userRepo}
}

func (a *AccessControl) IsAdmin(ctx context.Context, actorID string) (bool, error) {
	if actorID == "" || a.userRepo == nil {
		return false, nil
	}
	u, err := a.userRepo.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pulse_errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsAdmin(), nil
}

func (a *AccessControl) IsModerator(ctx context.Context, p poll.Poll, actorID string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	if p.IsModerator(actorID, false) {
		return true, nil
	}
	admin, err := a.IsAdmin(ctx, actorID)
	if err != nil {
		return false, err
	}
	return p.IsModerator(actorID, admin), nil
}

func (a *AccessControl) CanModerate(ctx context.Context, p poll.Poll, actorID string) error {
	ok, err := a.IsModerator(ctx, p, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return poll.ErrNotModerator
	}
	return nil
}

func (a *AccessControl) RequireAdmin(ctx context.Context, actorID string) error {
	ok, err := a.IsAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return poll.ErrNotModerator
	}
	return nil
}
