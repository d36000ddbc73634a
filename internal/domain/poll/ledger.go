package poll

import "time"

// UserVote represents poll_votes: one live entry per (poll, user).
type UserVote struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	PollID    string `gorm:"type:varchar(36);not null;uniqueIndex:uq_poll_votes_poll_user,priority:1"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:uq_poll_votes_poll_user,priority:2"`
	OptionID  string `gorm:"type:varchar(36);not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserVote) TableName() string {
	return "poll_votes"
}

// AnonymousVote represents anonymous_votes, keyed by (poll, session token,
// client ip hash). Legacy rows may carry NULL in either identity column; such
// rows never match a lookup and never collide in the unique index.
type AnonymousVote struct {
	ID           string  `gorm:"type:varchar(36);primaryKey"`
	PollID       string  `gorm:"type:varchar(36);not null;uniqueIndex:uq_anonymous_votes_identity,priority:1"`
	SessionToken *string `gorm:"type:varchar(128);uniqueIndex:uq_anonymous_votes_identity,priority:2"`
	IPHash       *string `gorm:"type:varchar(64);uniqueIndex:uq_anonymous_votes_identity,priority:3"`
	OptionID     string  `gorm:"type:varchar(36);not null;index"`
	CreatedAt    time.Time
}

func (AnonymousVote) TableName() string {
	return "anonymous_votes"
}

// Ballot is the ledger entry found for one identity, whatever table it lives in.
type Ballot struct {
	EntryID  string
	PollID   string
	OptionID string
	Kind     VoterKind
}

// VoteOutcome says what a successful cast did to the ledger.
type VoteOutcome string

const (
	VoteRecorded  VoteOutcome = "recorded"
	VoteChanged   VoteOutcome = "changed"
	VoteUnchanged VoteOutcome = "unchanged"
)

// CastResult is returned by the ledger after a successful cast.
type CastResult struct {
	Ballot           Ballot
	PreviousOptionID string
	Outcome          VoteOutcome
}
