package websocket

import (
	"context"
	"errors"

	"civic-pulse/internal/domain/poll"
)

// PollLookup is the part of the poll repository the authorizer needs.
type PollLookup interface {
	GetByID(ctx context.Context, id string) (poll.Poll, error)
}

// WatchAuthorizer decides whether a connection may follow a poll. Results are
// public, so any existing poll may be watched.
type WatchAuthorizer struct {
	polls PollLookup
}

func NewWatchAuthorizer(polls PollLookup) *WatchAuthorizer {
	return &WatchAuthorizer{polls: polls}
}

func (a *WatchAuthorizer) CanWatch(ctx context.Context, pollID string) (bool, error) {
	if _, err := a.polls.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, poll.ErrPollNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
