package services

import (
	"context"
	"fmt"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/pkg/events"

	"go.uber.org/zap"
)

const (
	viewerModerator = "moderator"
	viewerPublic    = "public"
)

func (s *PollService) tally(ctx context.Context, p poll.Poll) (poll.Tally, error) {
	counts, err := s.voteRepo.CountByOption(ctx, p.ID)
	if err != nil {
		return poll.Tally{}, err
	}
	return poll.NewTally(p, counts), nil
}

// Tally counts ledger entries per approved option.
func (s *PollService) Tally(ctx context.Context, pollID string) (poll.Tally, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.Tally{}, err
	}
	return s.tally(ctx, p)
}

// TallySnapshot is the current tally as a poll.tally event.
func (s *PollService) TallySnapshot(ctx context.Context, pollID string) (events.Event, error) {
	t, err := s.Tally(ctx, pollID)
	if err != nil {
		return events.Event{}, err
	}
	return events.NewEvent(events.TypeTallyUpdated, pollID, TallyPayload{PerOption: t.PerOption, Total: t.Total}), nil
}

// VerifyTally lists the options whose cached counter disagrees with the ledger.
func (s *PollService) VerifyTally(ctx context.Context, pollID string) ([]poll.Discrepancy, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	counts, err := s.voteRepo.CountByOption(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return poll.Compare(p, counts), nil
}

// ReconcileTally rewrites cached counters from the ledger and returns what it fixed.
func (s *PollService) ReconcileTally(ctx context.Context, pollID string) ([]poll.Discrepancy, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	counts, err := s.voteRepo.CountByOption(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	diffs := poll.Compare(p, counts)
	if len(diffs) == 0 {
		return nil, nil
	}

	fixed := make(map[string]int64, len(diffs))
	for _, d := range diffs {
		fixed[d.OptionID] = d.Ledger
	}
	if err := s.pollRepo.SetOptionVotes(ctx, p.ID, fixed); err != nil {
		return nil, fmt.Errorf("reconcile poll %s: %w", p.ID, err)
	}
	s.log.WithContext(ctx).Warn("reconciled cached vote counters",
		zap.String("poll_id", p.ID),
		zap.Int("options", len(diffs)))
	s.afterMutation(ctx, p.ID, events.TypeTallyUpdated, nil)
	return diffs, nil
}

// Statistics aggregates the ledger for display. Anonymous-response polls
// expose totals only. Per-user choices are shown to moderators.
func (s *PollService) Statistics(ctx context.Context, pollID, actorID string) (poll.Statistics, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.Statistics{}, err
	}
	moderator, err := s.access.IsModerator(ctx, p, actorID)
	if err != nil {
		return poll.Statistics{}, err
	}
	viewer := viewerPublic
	if moderator {
		viewer = viewerModerator
	}

	if s.cache != nil {
		var cached poll.Statistics
		hit, err := s.cache.Get(ctx, p.ID, viewer, &cached)
		if err != nil {
			s.log.WithContext(ctx).Warn("statistics cache read failed", zap.String("poll_id", p.ID), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	stats, err := s.buildStatistics(ctx, p, moderator)
	if err != nil {
		return poll.Statistics{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, p.ID, viewer, stats); err != nil {
			s.log.WithContext(ctx).Warn("statistics cache write failed", zap.String("poll_id", p.ID), zap.Error(err))
		}
	}
	return stats, nil
}

func (s *PollService) buildStatistics(ctx context.Context, p poll.Poll, moderator bool) (poll.Statistics, error) {
	t, err := s.tally(ctx, p)
	if err != nil {
		return poll.Statistics{}, err
	}
	stats := poll.Statistics{
		PollID:     p.ID,
		TotalVotes: t.Total,
		PerOption:  t.PerOption,
		Breakdown:  poll.BreakdownAvailable,
	}
	if p.AnonymousResponses {
		stats.Breakdown = poll.BreakdownInsufficientData
		return stats, nil
	}

	profiles, err := s.voteRepo.ListVoterProfiles(ctx, p.ID)
	if err != nil {
		return poll.Statistics{}, err
	}
	stats.ByGender = make(map[string]map[string]int64)
	for _, vp := range profiles {
		if _, ok := t.PerOption[vp.OptionID]; !ok {
			continue
		}
		gender := vp.Gender
		if gender == "" {
			gender = "unspecified"
		}
		if stats.ByGender[gender] == nil {
			stats.ByGender[gender] = make(map[string]int64)
		}
		stats.ByGender[gender][vp.OptionID]++
		if moderator {
			stats.ByUser = append(stats.ByUser, poll.UserChoice{
				UserID:      vp.UserID,
				DisplayName: vp.DisplayName,
				OptionID:    vp.OptionID,
			})
		}
	}
	return stats, nil
}
