// Package domain holds the session model and expiry classification shared by
// the store and the coordinator.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one period of authenticated access. Its expiry is
// independent of the credential's lifetime; multiple rows may exist per user
// as history, but only the most recent valid, non-expired row is authoritative.
type Session struct {
	ID             string
	UserID         string
	Role           string
	ExpiresAt      time.Time
	IsValid        bool // explicit kill switch, independent of ExpiresAt
	ExtensionCount int
	LastSeenAt     *time.Time // nil until the first extension
	CreatedAt      time.Time
}

// New returns a valid session for userID expiring lifetime after now.
func New(userID, role string, now time.Time, lifetime time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		ExpiresAt: now.Add(lifetime),
		IsValid:   true,
		CreatedAt: now,
	}
}

// Clone returns a deep copy, used for observer snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastSeenAt != nil {
		t := *s.LastSeenAt
		c.LastSeenAt = &t
	}
	return &c
}
