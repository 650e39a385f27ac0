// Package domain contains core concepts of the chat system.
// This file defines the User entity and its presence fields.
// Online and LastSeen are mutated only by the presence service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id"`
	Username          string     `json:"username"`
	FullName          string     `json:"fullName"`
	ProfilePictureURL string     `json:"profilePictureUrl,omitempty"`
	AboutStatus       string     `json:"aboutStatus,omitempty"`
	Online            bool       `json:"online"`
	LastSeen          *time.Time `json:"lastSeen,omitempty"`
	PasswordHash      string     `json:"-"`
}

// NewUser builds a lazily created user: referenced by username before any
// registration, so it starts offline and without credentials.
func NewUser(username string) User {
	return User{
		ID:       uuid.New(),
		Username: username,
		FullName: username,
	}
}
