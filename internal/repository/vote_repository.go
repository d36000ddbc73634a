package repository

import (
	"context"
	"fmt"
	"time"

	"civic-pulse/internal/domain/poll"
	pulse_errors "civic-pulse/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresVoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

// CastUserVote records, changes or leaves alone the voter's single live entry.
// Re-casting the recorded option is an explicit no-op.
func (r *PostgresVoteRepository) CastUserVote(ctx context.Context, pollID, userID, optionID string) (poll.CastResult, error) {
	var result poll.CastResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing poll.UserVote
		err := tx.Where("poll_id = ? AND user_id = ?", pollID, userID).Take(&existing).Error
		if isNotFound(err) {
			entry := poll.UserVote{ID: uuid.NewString(), PollID: pollID, UserID: userID, OptionID: optionID}
			if err := tx.Create(&entry).Error; err != nil {
				if isUniqueViolation(err) {
					return poll.ErrAlreadyVoted
				}
				return err
			}
			result = poll.CastResult{Ballot: userBallot(entry), Outcome: poll.VoteRecorded}
			return incrementVotes(tx, pollID, optionID)
		}
		if err != nil {
			return err
		}

		if existing.OptionID == optionID {
			result = poll.CastResult{Ballot: userBallot(existing), Outcome: poll.VoteUnchanged}
			return nil
		}

		live, err := optionExists(tx, pollID, existing.OptionID)
		if err != nil {
			return err
		}
		res := tx.Model(&poll.UserVote{}).
			Where("id = ? AND option_id = ?", existing.ID, existing.OptionID).
			Updates(map[string]interface{}{"option_id": optionID, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("vote changed concurrently: %w", pulse_errors.ErrConflict)
		}
		if live {
			if err := decrementVotes(tx, pollID, existing.OptionID); err != nil {
				return err
			}
		}
		if err := incrementVotes(tx, pollID, optionID); err != nil {
			return err
		}

		previous := existing.OptionID
		existing.OptionID = optionID
		result = poll.CastResult{Ballot: userBallot(existing), Outcome: poll.VoteRecorded}
		if live {
			result.Outcome = poll.VoteChanged
			result.PreviousOptionID = previous
		}
		return nil
	})
	if err != nil {
		return poll.CastResult{}, err
	}
	return result, nil
}

// CastAnonymousVote inserts an entry for the (poll, session, ip hash) triple.
// A live entry for the same triple is final until cancelled; an entry whose
// option has been deleted is re-pointed instead.
func (r *PostgresVoteRepository) CastAnonymousVote(ctx context.Context, pollID, sessionToken, ipHash, optionID string) (poll.CastResult, error) {
	if sessionToken == "" || ipHash == "" {
		return poll.CastResult{}, poll.ErrIdentityUnavailable
	}

	var result poll.CastResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing poll.AnonymousVote
		err := tx.Where("poll_id = ? AND session_token = ? AND ip_hash = ?", pollID, sessionToken, ipHash).
			Take(&existing).Error
		if isNotFound(err) {
			entry := poll.AnonymousVote{
				ID:           uuid.NewString(),
				PollID:       pollID,
				SessionToken: &sessionToken,
				IPHash:       &ipHash,
				OptionID:     optionID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				if isUniqueViolation(err) {
					return poll.ErrAlreadyVoted
				}
				return err
			}
			result = poll.CastResult{Ballot: anonymousBallot(entry), Outcome: poll.VoteRecorded}
			return incrementVotes(tx, pollID, optionID)
		}
		if err != nil {
			return err
		}

		live, err := optionExists(tx, pollID, existing.OptionID)
		if err != nil {
			return err
		}
		if live {
			return poll.ErrAlreadyVoted
		}
		res := tx.Model(&poll.AnonymousVote{}).
			Where("id = ? AND option_id = ?", existing.ID, existing.OptionID).
			Update("option_id", optionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return poll.ErrAlreadyVoted
		}
		existing.OptionID = optionID
		result = poll.CastResult{Ballot: anonymousBallot(existing), Outcome: poll.VoteRecorded}
		return incrementVotes(tx, pollID, optionID)
	})
	if err != nil {
		return poll.CastResult{}, err
	}
	return result, nil
}

func (r *PostgresVoteRepository) CancelUserVote(ctx context.Context, pollID, userID string) (poll.Ballot, error) {
	var ballot poll.Ballot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing poll.UserVote
		err := tx.Where("poll_id = ? AND user_id = ?", pollID, userID).Take(&existing).Error
		if isNotFound(err) {
			return poll.ErrNoVoteToCancel
		}
		if err != nil {
			return err
		}
		res := tx.Delete(&poll.UserVote{}, "id = ?", existing.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return poll.ErrNoVoteToCancel
		}
		ballot = userBallot(existing)
		return decrementVotes(tx, pollID, existing.OptionID)
	})
	if err != nil {
		return poll.Ballot{}, err
	}
	return ballot, nil
}

func (r *PostgresVoteRepository) CancelAnonymousVote(ctx context.Context, pollID, sessionToken, ipHash string) (poll.Ballot, error) {
	if sessionToken == "" || ipHash == "" {
		return poll.Ballot{}, poll.ErrNoVoteToCancel
	}

	var ballot poll.Ballot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing poll.AnonymousVote
		err := tx.Where("poll_id = ? AND session_token = ? AND ip_hash = ?", pollID, sessionToken, ipHash).
			Take(&existing).Error
		if isNotFound(err) {
			return poll.ErrNoVoteToCancel
		}
		if err != nil {
			return err
		}
		res := tx.Delete(&poll.AnonymousVote{}, "id = ?", existing.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return poll.ErrNoVoteToCancel
		}
		ballot = anonymousBallot(existing)
		return decrementVotes(tx, pollID, existing.OptionID)
	})
	if err != nil {
		return poll.Ballot{}, err
	}
	return ballot, nil
}

func (r *PostgresVoteRepository) FindUserVote(ctx context.Context, pollID, userID string) (poll.Ballot, error) {
	var v poll.UserVote
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Take(&v).Error
	if err != nil {
		if isNotFound(err) {
			return poll.Ballot{}, pulse_errors.ErrNotFound
		}
		return poll.Ballot{}, err
	}
	return userBallot(v), nil
}

// FindAnonymousVote matches the full triple only; rows with a NULL session
// token or ip hash are never returned.
func (r *PostgresVoteRepository) FindAnonymousVote(ctx context.Context, pollID, sessionToken, ipHash string) (poll.Ballot, error) {
	if sessionToken == "" || ipHash == "" {
		return poll.Ballot{}, pulse_errors.ErrNotFound
	}
	var v poll.AnonymousVote
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND session_token = ? AND ip_hash = ?", pollID, sessionToken, ipHash).
		Take(&v).Error
	if err != nil {
		if isNotFound(err) {
			return poll.Ballot{}, pulse_errors.ErrNotFound
		}
		return poll.Ballot{}, err
	}
	return anonymousBallot(v), nil
}

type optionCount struct {
	OptionID string
	N        int64
}

// CountByOption counts ledger entries of both tables per option id, orphans
// included. Callers decide which options are live.
func (r *PostgresVoteRepository) CountByOption(ctx context.Context, pollID string) (map[string]int64, error) {
	db := r.db.WithContext(ctx)
	counts := make(map[string]int64)

	for _, model := range []interface{}{&poll.UserVote{}, &poll.AnonymousVote{}} {
		var rows []optionCount
		err := db.Model(model).
			Select("option_id, COUNT(*) AS n").
			Where("poll_id = ?", pollID).
			Group("option_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			counts[row.OptionID] += row.N
		}
	}
	return counts, nil
}

func (r *PostgresVoteRepository) ListVoterProfiles(ctx context.Context, pollID string) ([]VoterProfile, error) {
	var out []VoterProfile
	err := r.db.WithContext(ctx).
		Table("poll_votes").
		Select("poll_votes.user_id, poll_votes.option_id, COALESCE(users.display_name, '') AS display_name, COALESCE(users.gender, '') AS gender").
		Joins("LEFT JOIN users ON users.id = poll_votes.user_id").
		Where("poll_votes.poll_id = ?", pollID).
		Order("poll_votes.created_at ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// incrementVotes bumps the cached counter atomically. Only approved options
// of the poll qualify; anything else rolls the transaction back.
func incrementVotes(tx *gorm.DB, pollID, optionID string) error {
	res := tx.Model(&poll.Option{}).
		Where("id = ? AND poll_id = ? AND status = ?", optionID, pollID, poll.OptionApproved).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotApproved)
	}
	return nil
}

// decrementVotes never takes a counter below zero. A missing option is fine:
// its entry was an orphan.
func decrementVotes(tx *gorm.DB, pollID, optionID string) error {
	return tx.Model(&poll.Option{}).
		Where("id = ? AND poll_id = ? AND votes > 0", optionID, pollID).
		UpdateColumn("votes", gorm.Expr("votes - ?", 1)).Error
}

func optionExists(tx *gorm.DB, pollID, optionID string) (bool, error) {
	var n int64
	err := tx.Model(&poll.Option{}).Where("id = ? AND poll_id = ?", optionID, pollID).Count(&n).Error
	return n > 0, err
}

func userBallot(v poll.UserVote) poll.Ballot {
	return poll.Ballot{EntryID: v.ID, PollID: v.PollID, OptionID: v.OptionID, Kind: poll.VoterUser}
}

func anonymousBallot(v poll.AnonymousVote) poll.Ballot {
	return poll.Ballot{EntryID: v.ID, PollID: v.PollID, OptionID: v.OptionID, Kind: poll.VoterAnonymous}
}
