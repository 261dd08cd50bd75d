// Package audit records session lifecycle events (creation, extension,
// invalidation, forced logout) for observability. Recording is best-effort:
// failures are logged and never affect the caller.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Lifecycle actions recorded by the coordinator.
const (
	ActionSessionCreated  = "session_created"
	ActionSessionExtended = "session_extended"
	ActionExtensionDenied = "extension_denied"
	ActionForcedLogout    = "forced_logout"
	ActionLogout          = "logout"
)

// Entry is one audit row.
type Entry struct {
	ID        string
	UserID    string
	SessionID string
	Action    string
	Metadata  string
	CreatedAt time.Time
}

// Repository defines persistence for audit entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
}

// Recorder writes a single lifecycle event. Used by the coordinator's
// state-transition paths.
type Recorder interface {
	Record(ctx context.Context, userID, sessionID, action, metadata string)
}

// Logger implements Recorder using the audit repository.
type Logger struct {
	repo Repository
	nowF func() time.Time
}

// NewLogger returns a Recorder that persists to repo. repo may be nil;
// Record is then a no-op.
func NewLogger(repo Repository) *Logger {
	return &Logger{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Record writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, userID, sessionID, action, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: sessionID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: l.nowF(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s for user %s: %v", action, userID, err)
	}
}
