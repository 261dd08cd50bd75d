// Package repository defines persistence for sessions.
package repository

import (
	"context"
	"errors"
	"time"

	"pos-session-manager/internal/session/domain"
)

// ErrNotFound is returned by Extend when no valid session exists for the id.
var ErrNotFound = errors.New("session not found")

// Repository defines the session store contract. All writes to a session row
// go through atomic update-by-id operations so concurrent clients never lose
// updates by writing back a stale copy.
type Repository interface {
	// GetByID returns the session for id, or (nil, nil) when missing.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// LatestValid returns the most recent valid session for userID whose
	// expiry is after now, or (nil, nil) when none exists.
	LatestValid(ctx context.Context, userID string, now time.Time) (*domain.Session, error)
	// Create persists the session. The session must have ID set.
	Create(ctx context.Context, s *domain.Session) error
	// Extend atomically pushes the session's expiry to until, increments its
	// extension count, and returns the updated row. Returns ErrNotFound when
	// the session is missing or already invalidated.
	Extend(ctx context.Context, id string, until time.Time) (*domain.Session, error)
	// Invalidate marks the session invalid and caps its expiry at the given time.
	Invalidate(ctx context.Context, id string, at time.Time) error
}
