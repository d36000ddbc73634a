package httpdto

import (
	"time"

	"civic-pulse/internal/domain/poll"
)

// OptionRequest is an option in POST /polls and POST /polls/:id/options.
// Person fields are ignored unless the poll's options are people.
type OptionRequest struct {
	Text       string `json:"text"`
	PhotoURL   string `json:"photo_url,omitempty"`
	Photo      string `json:"photo,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

type LocationDTO struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

type LinkPolicyDTO struct {
	Mode           string   `json:"mode" binding:"omitempty,oneof=any allowlist"`
	AllowedDomains []string `json:"allowed_domains"`
}

// CreatePollRequest is used for POST /polls
type CreatePollRequest struct {
	Question           string          `json:"question" binding:"required,max=1000"`
	Options            []OptionRequest `json:"options" binding:"max=100"`
	CreatorAnonymous   bool            `json:"creator_anonymous"`
	AnonymousResponses bool            `json:"anonymous_responses"`
	AllowUserOptions   bool            `json:"allow_user_options"`
	UserOptionApproval string          `json:"user_option_approval" binding:"omitempty,oneof=auto creator"`
	OptionsArePeople   bool            `json:"options_are_people"`
	LinkPolicy         *LinkPolicyDTO  `json:"link_policy"`
	VoteClosingDate    *time.Time      `json:"vote_closing_date"`
	RestrictToLocation bool            `json:"restrict_to_location"`
	Location           *LocationDTO    `json:"location"`
}

// VoteRequest is used for POST /polls/:id/vote. An empty option id is
// reported by the service as invalid-option-id.
type VoteRequest struct {
	OptionID string `json:"option_id"`
}

// UpdateLinkPolicyRequest is used for PUT /polls/:id/link-policy
type UpdateLinkPolicyRequest struct {
	Mode           string   `json:"mode" binding:"required,oneof=any allowlist"`
	AllowedDomains []string `json:"allowed_domains"`
}

type PersonDTO struct {
	PhotoURL   string `json:"photo_url,omitempty"`
	Photo      string `json:"photo,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// OptionDTO represents an option in API responses. Votes come from the
// ledger tally; pending options always show zero.
type OptionDTO struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Text      string     `json:"text"`
	Status    string     `json:"status"`
	Votes     int64      `json:"votes"`
	CreatedBy *string    `json:"created_by,omitempty"`
	Person    *PersonDTO `json:"person,omitempty"`
}

// PollDTO represents a poll in API responses
type PollDTO struct {
	ID                 string        `json:"id"`
	Question           string        `json:"question"`
	CreatorID          string        `json:"creator_id,omitempty"`
	CreatorAnonymous   bool          `json:"creator_anonymous"`
	AnonymousResponses bool          `json:"anonymous_responses"`
	AllowUserOptions   bool          `json:"allow_user_options"`
	UserOptionApproval string        `json:"user_option_approval"`
	OptionsArePeople   bool          `json:"options_are_people"`
	LinkPolicy         LinkPolicyDTO `json:"link_policy"`
	VoteClosingDate    *time.Time    `json:"vote_closing_date,omitempty"`
	RestrictToLocation bool          `json:"restrict_to_location"`
	Location           *LocationDTO  `json:"location,omitempty"`
	Options            []OptionDTO   `json:"options"`
	TotalVotes         int64         `json:"total_votes"`
	HasVoted           bool          `json:"has_voted"`
	VotedOptionID      string        `json:"voted_option_id,omitempty"`
	CanModerate        bool          `json:"can_moderate"`
	CreatedAt          time.Time     `json:"created_at"`
}

type VoteResponse struct {
	Poll    PollDTO `json:"poll"`
	Outcome string  `json:"outcome"`
}

type AddOptionResponse struct {
	Poll   PollDTO   `json:"poll"`
	Option OptionDTO `json:"option"`
}

type PendingOptionsResponse struct {
	Options []OptionDTO `json:"options"`
}

type UserChoiceDTO struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	OptionID    string `json:"option_id"`
}

// StatisticsResponse is returned by GET /polls/:id/statistics. The gender
// and per-user breakdowns are omitted when they are withheld.
type StatisticsResponse struct {
	PollID     string                      `json:"poll_id"`
	TotalVotes int64                       `json:"total_votes"`
	PerOption  map[string]int64            `json:"per_option"`
	Breakdown  string                      `json:"breakdown"`
	ByGender   map[string]map[string]int64 `json:"by_gender,omitempty"`
	ByUser     []UserChoiceDTO             `json:"by_user,omitempty"`
}

type DiscrepancyDTO struct {
	OptionID string `json:"option_id"`
	Cached   int64  `json:"cached"`
	Ledger   int64  `json:"ledger"`
}

type ReconcileResponse struct {
	Fixed []DiscrepancyDTO `json:"fixed"`
}

// FromPoll maps a poll and its tally. The creator is hidden when the poll
// was created anonymously, except from moderators.
func FromPoll(p poll.Poll, tally poll.Tally, moderator bool) PollDTO {
	dto := PollDTO{
		ID:                 p.ID,
		Question:           p.Question,
		CreatorAnonymous:   p.CreatorAnonymous,
		AnonymousResponses: p.AnonymousResponses,
		AllowUserOptions:   p.AllowUserOptions,
		UserOptionApproval: string(p.UserOptionApproval),
		OptionsArePeople:   p.OptionsArePeople,
		LinkPolicy:         FromLinkPolicy(p.LinkPolicy),
		VoteClosingDate:    p.VoteClosingDate,
		RestrictToLocation: p.RestrictToLocation,
		Options:            make([]OptionDTO, 0, len(p.Options)),
		TotalVotes:         tally.Total,
		CanModerate:        moderator,
		CreatedAt:          p.CreatedAt,
	}
	if !p.CreatorAnonymous || moderator {
		dto.CreatorID = p.CreatorID
	}
	if p.RestrictToLocation {
		dto.Location = &LocationDTO{Country: p.Location.Country, Region: p.Location.Region, City: p.Location.City}
	}
	for _, o := range p.Options {
		dto.Options = append(dto.Options, FromOption(o, tally.PerOption[o.ID]))
	}
	return dto
}

func FromOption(o poll.Option, votes int64) OptionDTO {
	dto := OptionDTO{
		ID:        o.ID,
		Kind:      string(o.Kind),
		Text:      o.Text,
		Status:    string(o.Status),
		Votes:     votes,
		CreatedBy: o.CreatedBy,
	}
	if person, ok := o.AsPerson(); ok {
		dto.Person = &PersonDTO{PhotoURL: person.PhotoURL, ProfileURL: person.ProfileURL}
		if person.PhotoData != "" {
			dto.Person.Photo = "data:" + person.PhotoMIME + ";base64," + person.PhotoData
		}
	}
	return dto
}

func FromOptions(options []poll.Option) []OptionDTO {
	out := make([]OptionDTO, 0, len(options))
	for _, o := range options {
		out = append(out, FromOption(o, 0))
	}
	return out
}

func FromLinkPolicy(p poll.LinkPolicy) LinkPolicyDTO {
	domains := p.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	return LinkPolicyDTO{Mode: string(p.Mode), AllowedDomains: domains}
}

func FromStatistics(s poll.Statistics) StatisticsResponse {
	resp := StatisticsResponse{
		PollID:     s.PollID,
		TotalVotes: s.TotalVotes,
		PerOption:  s.PerOption,
		Breakdown:  s.Breakdown,
		ByGender:   s.ByGender,
	}
	for _, u := range s.ByUser {
		resp.ByUser = append(resp.ByUser, UserChoiceDTO{UserID: u.UserID, DisplayName: u.DisplayName, OptionID: u.OptionID})
	}
	return resp
}

func FromDiscrepancies(diffs []poll.Discrepancy) []DiscrepancyDTO {
	out := make([]DiscrepancyDTO, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, DiscrepancyDTO{OptionID: d.OptionID, Cached: d.Cached, Ledger: d.Ledger})
	}
	return out
}
