package dto

import (
	"time"

	"erent/internal/domain/user"
)

type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone,omitempty"`
	GenderID  string    `json:"gender_id,omitempty"`
	CityID    string    `json:"city_id,omitempty"`
	Roles     []string  `json:"roles"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func MapUser(u *user.User) User {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return User{
		ID:        string(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Username:  u.Username,
		Phone:     u.Phone,
		GenderID:  string(u.GenderID),
		CityID:    string(u.CityID),
		Roles:     roles,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Login is returned on successful authentication.
type Login struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
