package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingRepo struct{}

func (failingRepo) Create(ctx context.Context, e *Entry) error {
	return errors.New("db down")
}

func TestLogger_RecordPersistsEntry(t *testing.T) {
	repo := NewMemoryRepository()
	l := NewLogger(repo)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.nowF = func() time.Time { return now }

	l.Record(context.Background(), "user-1", "sess-1", ActionSessionExtended, "count=3")

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID == "" {
		t.Error("entry should have an id")
	}
	if e.UserID != "user-1" || e.SessionID != "sess-1" || e.Action != ActionSessionExtended {
		t.Errorf("entry = %+v", e)
	}
	if !e.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, now)
	}
}

func TestLogger_RecordBestEffort(t *testing.T) {
	l := NewLogger(failingRepo{})
	// Must not panic or propagate the repo error.
	l.Record(context.Background(), "user-1", "", ActionForcedLogout, "")
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Record(context.Background(), "user-1", "", ActionLogout, "")

	NewLogger(nil).Record(context.Background(), "user-1", "", ActionLogout, "")
}
