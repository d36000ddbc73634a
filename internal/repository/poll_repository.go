package repository

import (
	"context"
	"fmt"
	"time"

	"civic-pulse/internal/domain/poll"

	"gorm.io/gorm"
)

type PostgresPollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &PostgresPollRepository{db: db}
}

// Create inserts the poll together with its initial options.
func (r *PostgresPollRepository) Create(ctx context.Context, p *poll.Poll) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PostgresPollRepository) GetByID(ctx context.Context, id string) (poll.Poll, error) {
	var p poll.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if isNotFound(err) {
			return poll.Poll{}, fmt.Errorf("poll %s: %w", id, poll.ErrPollNotFound)
		}
		return poll.Poll{}, err
	}
	return p, nil
}

func (r *PostgresPollRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresPollRepository) UpdateLinkPolicy(ctx context.Context, pollID string, policy poll.LinkPolicy) error {
	res := r.db.WithContext(ctx).
		Model(&poll.Poll{ID: pollID}).
		Select("link_mode", "link_allowed_domains", "updated_at").
		Updates(poll.Poll{LinkPolicy: policy, UpdatedAt: time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("poll %s: %w", pollID, poll.ErrPollNotFound)
	}
	return nil
}

func (r *PostgresPollRepository) AddOption(ctx context.Context, o *poll.Option) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// ApproveOption flips pending to approved in one conditional update so two
// moderators cannot both succeed.
func (r *PostgresPollRepository) ApproveOption(ctx context.Context, pollID, optionID string) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&poll.Option{}).
		Where("id = ? AND poll_id = ? AND status = ?", optionID, pollID, poll.OptionPending).
		Update("status", poll.OptionApproved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := db.Model(&poll.Option{}).Where("id = ? AND poll_id = ?", optionID, pollID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotFound)
	}
	return fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotPending)
}

// DeleteOption removes the option row only. Ledger entries pointing at it
// stay behind as orphans and drop out of every tally.
func (r *PostgresPollRepository) DeleteOption(ctx context.Context, pollID, optionID string) error {
	res := r.db.WithContext(ctx).Delete(&poll.Option{}, "id = ? AND poll_id = ?", optionID, pollID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotFound)
	}
	return nil
}

// SetOptionVotes overwrites cached counters. Used by reconciliation only.
func (r *PostgresPollRepository) SetOptionVotes(ctx context.Context, pollID string, votes map[string]int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for optionID, n := range votes {
			err := tx.Model(&poll.Option{}).
				Where("id = ? AND poll_id = ?", optionID, pollID).
				UpdateColumn("votes", n).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
