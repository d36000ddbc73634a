package poll

import (
	pulse_errors "civic-pulse/pkg/errors"
)

// Validation errors
var (
	ErrEmptyOptionText  = pulse_errors.New(pulse_errors.ErrInvalidInput, "empty-option-text", "option text must not be empty")
	ErrNotHTTPS         = pulse_errors.New(pulse_errors.ErrInvalidInput, "not-https", "url must use https")
	ErrDomainNotAllowed = pulse_errors.New(pulse_errors.ErrInvalidInput, "domain-not-allowed", "url domain is not in the allowlist")
	ErrInvalidURL       = pulse_errors.New(pulse_errors.ErrInvalidInput, "invalid-url", "url is malformed")
	ErrInvalidDomain    = pulse_errors.New(pulse_errors.ErrInvalidInput, "invalid-domain", "allowlist domain is not a valid hostname")
	ErrPhotoInvalid     = pulse_errors.New(pulse_errors.ErrInvalidInput, "photo-invalid", "photo must be a jpeg, png or webp image within the size limit")
	ErrInvalidPoll      = pulse_errors.New(pulse_errors.ErrInvalidInput, "invalid-poll", "poll definition is invalid")
	ErrNotEnoughOptions = pulse_errors.New(pulse_errors.ErrInvalidInput, "not-enough-options", "a poll needs at least two options unless users may add their own")
	ErrInvalidOptionID  = pulse_errors.New(pulse_errors.ErrInvalidInput, "invalid-option-id", "option id is required")
)

// Conflict errors. A duplicate option is rejected as bad input on the wire;
// its code is what tells clients it clashed with an existing option.
var (
	ErrAlreadyVoted        = pulse_errors.New(pulse_errors.ErrConflict, "already-voted", "you have already voted in this poll")
	ErrDuplicateOptionText = pulse_errors.New(pulse_errors.ErrInvalidInput, "duplicate-option-text", "an option with the same text already exists")
)

// State errors
var (
	ErrOptionNotApproved = pulse_errors.New(pulse_errors.ErrInvalidInput, "option-not-approved", "option is not approved for voting")
	ErrOptionNotPending  = pulse_errors.New(pulse_errors.ErrInvalidTransition, "option-not-pending", "option is not pending moderation")
	ErrPollClosed        = pulse_errors.New(pulse_errors.ErrInvalidTransition, "poll-closed", "poll is closed for voting")
	ErrNoVoteToCancel    = pulse_errors.New(pulse_errors.ErrNotFound, "no-vote-to-cancel", "no vote to cancel")
	ErrOptionNotFound    = pulse_errors.New(pulse_errors.ErrNotFound, "option-not-found", "option not found")
	ErrPollNotFound      = pulse_errors.New(pulse_errors.ErrNotFound, "poll-not-found", "poll not found")
	ErrUserOptionsOff    = pulse_errors.New(pulse_errors.ErrForbidden, "user-options-disabled", "this poll does not accept user submitted options")
)

// Authorization errors
var (
	ErrIdentityUnavailable = pulse_errors.New(pulse_errors.ErrUnauthorized, "identity-unavailable", "this poll requires signing in")
	ErrLocationRestricted  = pulse_errors.New(pulse_errors.ErrUnauthorized, "location-restricted", "this poll is restricted to voters from another location")
	ErrNotModerator        = pulse_errors.New(pulse_errors.ErrForbidden, "not-moderator", "only the poll creator or an admin may do this")
)
