package audit

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory audit repository for tests and for
// sessiond runs without a database.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRepository returns a new in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create appends a copy of the entry.
func (r *MemoryRepository) Create(ctx context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

// Entries returns a copy of the recorded entries in insertion order.
func (r *MemoryRepository) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
