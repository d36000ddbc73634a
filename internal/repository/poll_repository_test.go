package repository_test

import (
	"context"
	"testing"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/repository"
	"civic-pulse/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	polls := repository.NewPollRepository(db)
	p := seedPoll(t, db, poll.OptionApproved, poll.OptionPending)

	got, err := polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Question, got.Question)
	require.Len(t, got.Options, 2)
	assert.Equal(t, p.Options[0].ID, got.Options[0].ID)
	assert.Equal(t, poll.OptionPending, got.Options[1].Status)

	_, err = polls.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, poll.ErrPollNotFound)
}

func TestPollRepository_ApproveOption(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	polls := repository.NewPollRepository(db)
	p := seedPoll(t, db, poll.OptionApproved, poll.OptionPending)

	assert.ErrorIs(t, polls.ApproveOption(ctx, p.ID, p.Options[0].ID), poll.ErrOptionNotPending)
	assert.ErrorIs(t, polls.ApproveOption(ctx, p.ID, uuid.NewString()), poll.ErrOptionNotFound)

	require.NoError(t, polls.ApproveOption(ctx, p.ID, p.Options[1].ID))
	assert.ErrorIs(t, polls.ApproveOption(ctx, p.ID, p.Options[1].ID), poll.ErrOptionNotPending)

	got, err := polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.ApprovedOptions(), 2)
}

func TestPollRepository_LinkPolicyRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	polls := repository.NewPollRepository(db)
	p := seedPoll(t, db, poll.OptionApproved, poll.OptionApproved)

	policy := poll.LinkPolicy{Mode: poll.LinkModeAllowlist, AllowedDomains: []string{"example.com", "gov.gr"}}
	require.NoError(t, polls.UpdateLinkPolicy(ctx, p.ID, policy))

	got, err := polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy, got.LinkPolicy)

	assert.ErrorIs(t, polls.UpdateLinkPolicy(ctx, uuid.NewString(), policy), poll.ErrPollNotFound)
}

func TestPollRepository_DeleteOptionAndSetVotes(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	polls := repository.NewPollRepository(db)
	p := seedPoll(t, db, poll.OptionApproved, poll.OptionApproved)

	require.NoError(t, polls.SetOptionVotes(ctx, p.ID, map[string]int64{p.Options[0].ID: 7}))
	assert.EqualValues(t, 7, optionVotes(t, db, p.Options[0].ID))

	require.NoError(t, polls.DeleteOption(ctx, p.ID, p.Options[0].ID))
	assert.ErrorIs(t, polls.DeleteOption(ctx, p.ID, p.Options[0].ID), poll.ErrOptionNotFound)

	ids, err := polls.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, ids)
}
