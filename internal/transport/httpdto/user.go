package httpdto

import (
	"civic-pulse/internal/domain/user"
)

// UserDTO represents the signed-in voter in API responses
type UserDTO struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Role        string      `json:"role"`
	Gender      string      `json:"gender,omitempty"`
	Location    LocationDTO `json:"location"`
}

// WhoAmIResponse is returned by GET /me for both kinds of voter.
type WhoAmIResponse struct {
	Kind string   `json:"kind"`
	User *UserDTO `json:"user,omitempty"`
}

func FromUser(u user.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Gender:      u.Gender,
		Location: LocationDTO{
			Country: u.Location.Country,
			Region:  u.Location.Region,
			City:    u.Location.City,
		},
	}
}
