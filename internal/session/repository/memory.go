package repository

import (
	"context"
	"sync"
	"time"

	"pos-session-manager/internal/session/domain"
)

// MemoryRepository is an in-memory Repository implementation, used by tests
// and when sessiond runs without a database.
type MemoryRepository struct {
	mu   sync.Mutex
	m    map[string]*domain.Session
	nowF func() time.Time
}

// NewMemoryRepository returns a new in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		m:    make(map[string]*domain.Session),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// GetByID returns the session for id, or (nil, nil) when missing.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id].Clone(), nil
}

// LatestValid returns the most recently created valid session for userID with
// expiry after now, or (nil, nil) when none exists.
func (r *MemoryRepository) LatestValid(ctx context.Context, userID string, now time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Session
	for _, s := range r.m {
		if s.UserID != userID || !s.IsValid || !s.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	return latest.Clone(), nil
}

// Create stores a copy of the session.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[s.ID] = s.Clone()
	return nil
}

// Extend pushes the session's expiry to until and increments its extension count.
func (r *MemoryRepository) Extend(ctx context.Context, id string, until time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || !s.IsValid {
		return nil, ErrNotFound
	}
	s.ExpiresAt = until
	s.ExtensionCount++
	seen := r.nowF()
	s.LastSeenAt = &seen
	return s.Clone(), nil
}

// Invalidate marks the session invalid and caps its expiry at the given time.
func (r *MemoryRepository) Invalidate(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.IsValid = false
		if at.Before(s.ExpiresAt) {
			s.ExpiresAt = at
		}
	}
	return nil
}

// CountForUser returns the number of stored rows for userID, history included.
func (r *MemoryRepository) CountForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.m {
		if s.UserID == userID {
			n++
		}
	}
	return n
}
