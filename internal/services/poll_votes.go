package services

import (
	"context"
	"errors"
	"fmt"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/identity"
	pulse_errors "civic-pulse/pkg/errors"
	"civic-pulse/pkg/events"

	"go.uber.org/zap"
)

// Vote records, keeps or changes the caller's vote. Authenticated voters may
// change their vote; anonymous voters get one vote per session and address.
func (s *PollService) Vote(ctx context.Context, pollID, optionID string, req identity.Request) (VoteResult, error) {
	if optionID == "" {
		return VoteResult{}, poll.ErrInvalidOptionID
	}
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return VoteResult{}, err
	}
	id, err := s.resolver.Resolve(req, !p.AnonymousResponses)
	if err != nil {
		return VoteResult{}, err
	}
	if p.IsClosed(s.now()) {
		return VoteResult{}, poll.ErrPollClosed
	}
	if o, ok := p.FindOption(optionID); !ok || o.Status != poll.OptionApproved {
		return VoteResult{}, fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotApproved)
	}
	if err := s.checkLocation(ctx, p, id); err != nil {
		return VoteResult{}, err
	}

	var result poll.CastResult
	switch v := id.(type) {
	case poll.Authenticated:
		result, err = s.voteRepo.CastUserVote(ctx, p.ID, v.UserID, optionID)
	case poll.Anonymous:
		if v.SessionToken == "" || v.ClientIP == "" {
			return VoteResult{}, poll.ErrIdentityUnavailable
		}
		result, err = s.voteRepo.CastAnonymousVote(ctx, p.ID, v.SessionToken, v.ClientIP, optionID)
	default:
		return VoteResult{}, poll.ErrIdentityUnavailable
	}
	if err != nil {
		if errors.Is(err, poll.ErrAlreadyVoted) {
			s.metrics.Vote(string(id.Kind()), "rejected")
		}
		return VoteResult{}, err
	}

	s.metrics.Vote(string(id.Kind()), string(result.Outcome))
	if result.Outcome != poll.VoteUnchanged {
		s.log.WithContext(ctx).Info("vote cast",
			zap.String("poll_id", p.ID),
			zap.String("option_id", optionID),
			zap.String("previous_option_id", result.PreviousOptionID),
			zap.String("voter", string(id.Kind())),
			zap.String("outcome", string(result.Outcome)))
		s.afterMutation(ctx, p.ID, events.TypeTallyUpdated, nil)
	}

	view, err := s.reload(ctx, p.ID, req)
	if err != nil {
		return VoteResult{}, err
	}
	return VoteResult{View: view, Outcome: result.Outcome}, nil
}

// CancelVote withdraws the caller's live vote. Closed polls keep their votes.
func (s *PollService) CancelVote(ctx context.Context, pollID string, req identity.Request) (PollView, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return PollView{}, err
	}
	id, err := s.resolver.Resolve(req, !p.AnonymousResponses)
	if err != nil {
		return PollView{}, err
	}
	if p.IsClosed(s.now()) {
		return PollView{}, poll.ErrPollClosed
	}

	var ballot poll.Ballot
	switch v := id.(type) {
	case poll.Authenticated:
		ballot, err = s.voteRepo.CancelUserVote(ctx, p.ID, v.UserID)
	case poll.Anonymous:
		ballot, err = s.voteRepo.CancelAnonymousVote(ctx, p.ID, v.SessionToken, v.ClientIP)
	default:
		err = poll.ErrNoVoteToCancel
	}
	if err != nil {
		return PollView{}, err
	}

	s.metrics.Vote(string(id.Kind()), "cancelled")
	s.log.WithContext(ctx).Info("vote cancelled",
		zap.String("poll_id", p.ID),
		zap.String("option_id", ballot.OptionID),
		zap.String("voter", string(id.Kind())))
	s.afterMutation(ctx, p.ID, events.TypeTallyUpdated, nil)
	return s.reload(ctx, p.ID, req)
}

// checkLocation applies the poll's location scope. Anonymous voters have no
// declared location and never pass a restricted poll.
func (s *PollService) checkLocation(ctx context.Context, p poll.Poll, id poll.VoterIdentity) error {
	if !p.RestrictToLocation {
		return nil
	}
	auth, ok := id.(poll.Authenticated)
	if !ok || s.userRepo == nil {
		return poll.ErrLocationRestricted
	}
	u, err := s.userRepo.GetUserByID(ctx, auth.UserID)
	if err != nil {
		if errors.Is(err, pulse_errors.ErrNotFound) {
			return poll.ErrLocationRestricted
		}
		return err
	}
	if u.Location.IsZero() || !p.Location.Contains(u.Location) {
		return poll.ErrLocationRestricted
	}
	return nil
}
