package poll

import (
	"strings"
	"time"
)

type ApprovalMode string

const (
	ApprovalAuto    ApprovalMode = "auto"
	ApprovalCreator ApprovalMode = "creator"
)

func (m ApprovalMode) Valid() bool {
	return m == ApprovalAuto || m == ApprovalCreator
}

type LinkMode string

const (
	LinkModeAny       LinkMode = "any"
	LinkModeAllowlist LinkMode = "allowlist"
)

// LinkPolicy governs externally supplied URLs on a poll's options.
type LinkPolicy struct {
	Mode           LinkMode `gorm:"type:varchar(16);not null;default:'any'"`
	AllowedDomains []string `gorm:"type:text;serializer:json"`
}

// Location is both a voter's declared location and a poll's location scope.
// Empty fields in a scope match anything.
type Location struct {
	Country string `gorm:"type:varchar(64)"`
	Region  string `gorm:"type:varchar(128)"`
	City    string `gorm:"type:varchar(128)"`
}

func (l Location) IsZero() bool {
	return l.Country == "" && l.Region == "" && l.City == ""
}

// Contains reports whether the declared location falls inside scope l.
func (l Location) Contains(declared Location) bool {
	return scopeField(l.Country, declared.Country) &&
		scopeField(l.Region, declared.Region) &&
		scopeField(l.City, declared.City)
}

func scopeField(scope, declared string) bool {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return true
	}
	return strings.EqualFold(scope, strings.TrimSpace(declared))
}

// Poll represents the polls table. Options are owned rows in poll_options.
type Poll struct {
	ID                 string       `gorm:"type:varchar(36);primaryKey"`
	Question           string       `gorm:"type:text;not null"`
	CreatorID          string       `gorm:"type:varchar(36);not null;index"`
	CreatorAnonymous   bool         `gorm:"not null;default:false"`
	AnonymousResponses bool         `gorm:"not null;default:false"`
	AllowUserOptions   bool         `gorm:"not null;default:false"`
	UserOptionApproval ApprovalMode `gorm:"type:varchar(16);not null;default:'auto'"`
	OptionsArePeople   bool         `gorm:"not null;default:false"`
	LinkPolicy         LinkPolicy   `gorm:"embedded;embeddedPrefix:link_"`
	VoteClosingDate    *time.Time
	RestrictToLocation bool     `gorm:"not null;default:false"`
	Location           Location `gorm:"embedded;embeddedPrefix:location_"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Relations
	Options []Option `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

func (Poll) TableName() string {
	return "polls"
}

// IsClosed reports whether the closing date has passed at now.
func (p Poll) IsClosed(now time.Time) bool {
	return p.VoteClosingDate != nil && !now.Before(*p.VoteClosingDate)
}

// OptionKind is fixed for all options of a poll at creation time.
func (p Poll) OptionKind() OptionKind {
	if p.OptionsArePeople {
		return OptionKindPerson
	}
	return OptionKindText
}

// SubmissionStatus is the status a user-submitted option starts in.
func (p Poll) SubmissionStatus() OptionStatus {
	if p.UserOptionApproval == ApprovalCreator {
		return OptionPending
	}
	return OptionApproved
}

func (p Poll) FindOption(optionID string) (*Option, bool) {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i], true
		}
	}
	return nil, false
}

func (p Poll) ApprovedOptions() []Option {
	out := make([]Option, 0, len(p.Options))
	for _, o := range p.Options {
		if o.Status == OptionApproved {
			out = append(out, o)
		}
	}
	return out
}

func (p Poll) PendingOptions() []Option {
	out := make([]Option, 0)
	for _, o := range p.Options {
		if o.Status == OptionPending {
			out = append(out, o)
		}
	}
	return out
}

// HasApprovedText reports whether an approved option other than exceptID
// normalizes to the same text.
func (p Poll) HasApprovedText(text, exceptID string) bool {
	normalized := NormalizeText(text)
	for _, o := range p.Options {
		if o.ID == exceptID || o.Status != OptionApproved {
			continue
		}
		if NormalizeText(o.Text) == normalized {
			return true
		}
	}
	return false
}

func (p Poll) NextPosition() int {
	next := 0
	for _, o := range p.Options {
		if o.Position >= next {
			next = o.Position + 1
		}
	}
	return next
}

// IsModerator reports whether actor may approve or delete options.
func (p Poll) IsModerator(actorID string, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return actorID != "" && actorID == p.CreatorID
}
