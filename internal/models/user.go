package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UID          uuid.UUID
	Name         string
	Email        string
	Role         string
	IsVerified   bool
	PasswordHash string // empty for OAuth-only accounts
	GoogleID     string
	CreatedAt    time.Time
}

// SafeUser is the projection of a user that is allowed to travel inside
// token claims and API responses. No password hash, no OAuth ids.
type SafeUser struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

func (u *User) Safe() SafeUser {
	return SafeUser{
		UID:        u.UID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
