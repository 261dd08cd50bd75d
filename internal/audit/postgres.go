package audit

import (
	"context"
	"database/sql"
)

// PostgresRepository persists audit entries using the given db.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one audit row.
func (r *PostgresRepository) Create(ctx context.Context, e *Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_audit (id, user_id, session_id, action, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.SessionID, e.Action, e.Metadata, e.CreatedAt)
	return err
}
