package poll

import "time"

type OptionStatus string

const (
	OptionApproved OptionStatus = "approved"
	OptionPending  OptionStatus = "pending"
)

type OptionKind string

const (
	OptionKindText   OptionKind = "text"
	OptionKindPerson OptionKind = "person"
)

// PersonDetails holds the people-mode fields of an option. Only meaningful
// when the option's Kind is OptionKindPerson.
type PersonDetails struct {
	PhotoURL   string `gorm:"type:text"`
	PhotoKey   string `gorm:"type:text"`
	PhotoMIME  string `gorm:"type:varchar(32)"`
	PhotoData  string `gorm:"type:text"`
	ProfileURL string `gorm:"type:text"`
}

// Option represents poll_options. Votes is the cached counter; the vote
// ledger is authoritative.
type Option struct {
	ID        string        `gorm:"type:varchar(36);primaryKey"`
	PollID    string        `gorm:"type:varchar(36);not null;index:idx_poll_options_poll,priority:1"`
	Position  int           `gorm:"not null;default:0;index:idx_poll_options_poll,priority:2"`
	Kind      OptionKind    `gorm:"type:varchar(16);not null;default:'text'"`
	Text      string        `gorm:"type:text;not null"`
	Votes     int64         `gorm:"not null;default:0"`
	Status    OptionStatus  `gorm:"type:varchar(16);not null;default:'approved';index"`
	CreatedBy *string       `gorm:"type:varchar(36)"`
	Person    PersonDetails `gorm:"embedded;embeddedPrefix:person_"`
	CreatedAt time.Time
}

func (Option) TableName() string {
	return "poll_options"
}

// AsPerson returns the person fields when the option is a person option.
func (o Option) AsPerson() (PersonDetails, bool) {
	if o.Kind != OptionKindPerson {
		return PersonDetails{}, false
	}
	return o.Person, true
}

func (o Option) IsUserSubmitted() bool {
	return o.CreatedBy != nil
}

// Approve moves a pending option to approved. There is no way back to pending.
func (o *Option) Approve() error {
	if o.Status != OptionPending {
		return ErrOptionNotPending
	}
	o.Status = OptionApproved
	return nil
}
