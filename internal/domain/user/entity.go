package user

import (
	"time"

	"civic-pulse/internal/domain/poll"
)

const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleUser       = "USER"
)

// User represents the users table. Accounts are created by the external
// sign-in flow; this service only reads them.
type User struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	DisplayName string `gorm:"type:varchar(128);not null"`
	Email       string `gorm:"type:varchar(255);uniqueIndex"`
	Role        string `gorm:"type:varchar(16);not null;default:'USER'"` // SUPER_ADMIN, ADMIN, USER
	Gender      string `gorm:"type:varchar(32)"`
	// Declared location; checked against location restricted polls.
	Location  poll.Location `gorm:"embedded;embeddedPrefix:location_"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// GenderOrUnknown buckets missing genders under "unspecified".
func (u User) GenderOrUnknown() string {
	if u.Gender == "" {
		return "unspecified"
	}
	return u.Gender
}
