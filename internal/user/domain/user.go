package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Username is the public handle used for pod
// invites; AvatarURL points at the object store's public URL for the avatar.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	AvatarURL    string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// Profile is the public view of a user, safe to return to other members.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, AvatarURL: u.AvatarURL}
}
