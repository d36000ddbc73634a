package repository

import (
	"context"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/domain/user"
)

type PollRepository interface {
	Create(ctx context.Context, p *poll.Poll) error
	GetByID(ctx context.Context, id string) (poll.Poll, error)
	ListIDs(ctx context.Context) ([]string, error)
	UpdateLinkPolicy(ctx context.Context, pollID string, policy poll.LinkPolicy) error

	AddOption(ctx context.Context, o *poll.Option) error
	ApproveOption(ctx context.Context, pollID, optionID string) error
	DeleteOption(ctx context.Context, pollID, optionID string) error
	SetOptionVotes(ctx context.Context, pollID string, votes map[string]int64) error
}

// VoteRepository is the vote ledger. Every mutation moves the ledger entry and
// the cached option counter together in one transaction.
type VoteRepository interface {
	CastUserVote(ctx context.Context, pollID, userID, optionID string) (poll.CastResult, error)
	CastAnonymousVote(ctx context.Context, pollID, sessionToken, ipHash, optionID string) (poll.CastResult, error)
	CancelUserVote(ctx context.Context, pollID, userID string) (poll.Ballot, error)
	CancelAnonymousVote(ctx context.Context, pollID, sessionToken, ipHash string) (poll.Ballot, error)

	FindUserVote(ctx context.Context, pollID, userID string) (poll.Ballot, error)
	FindAnonymousVote(ctx context.Context, pollID, sessionToken, ipHash string) (poll.Ballot, error)

	CountByOption(ctx context.Context, pollID string) (map[string]int64, error)
	ListVoterProfiles(ctx context.Context, pollID string) ([]VoterProfile, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) error
}

// VoterProfile is an authenticated ledger entry joined with the voter's profile.
type VoterProfile struct {
	UserID      string
	OptionID    string
	DisplayName string
	Gender      string
}
