package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pos-session-manager/internal/session/domain"
)

// PostgresRepository persists sessions using the given db.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, role, expires_at, is_valid, extension_count, last_seen_at, created_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// LatestValid returns the most recent valid, non-expired session for userID,
// or nil when none exists.
func (r *PostgresRepository) LatestValid(ctx context.Context, userID string, now time.Time) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1 AND is_valid AND expires_at > $2
		 ORDER BY created_at DESC LIMIT 1`, userID, now)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, role, expires_at, is_valid, extension_count, last_seen_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.Role, s.ExpiresAt, s.IsValid, s.ExtensionCount,
		timeToNullTime(s.LastSeenAt), s.CreatedAt)
	return err
}

// Extend pushes the session's expiry to until and increments its extension
// count in a single UPDATE, so concurrent extensions never lose a count.
func (r *PostgresRepository) Extend(ctx context.Context, id string, until time.Time) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE sessions
		 SET expires_at = $2, extension_count = extension_count + 1, last_seen_at = NOW()
		 WHERE id = $1 AND is_valid
		 RETURNING `+sessionColumns, id, until)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// Invalidate marks the session invalid and caps its expiry at the given time.
// Invalidating an unknown id is a no-op.
func (r *PostgresRepository) Invalidate(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET is_valid = FALSE, expires_at = LEAST(expires_at, $2) WHERE id = $1`,
		id, at)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var lastSeen sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.Role, &s.ExpiresAt, &s.IsValid,
		&s.ExtensionCount, &lastSeen, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.LastSeenAt = nullTimeToPtr(lastSeen)
	return &s, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
