package model

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

// User represents an account created on first OAuth sign-in.
type User struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"-"` // OAuth provider name
	ProviderID string    `json:"-"` // subject ID at the provider
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanWrite reports whether the user may perform mutating requests.
func (u *User) CanWrite() bool {
	return u.Status == StatusActive
}
