package status

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRepository persists status entries in Postgres
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new status repository
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListActive retrieves a group's unexpired entries, newest first.
// Expiry is a read-time filter; stale rows stay until the sweeper runs.
func (r *PostgresRepository) ListActive(ctx context.Context, groupID string, now time.Time) ([]*Entry, error) {
	query := `
		SELECT group_id, user_id, status, emoji, image, expires_at, updated_at
		FROM group_statuses
		WHERE group_id = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(
			&e.GroupID,
			&e.UserID,
			&e.Message,
			&e.Emoji,
			&e.Image,
			&e.ExpiresAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Upsert replaces the entry keyed on (group_id, user_id)
func (r *PostgresRepository) Upsert(ctx context.Context, e *Entry) (*Entry, error) {
	query := `
		INSERT INTO group_statuses (group_id, user_id, status, emoji, image, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET status = EXCLUDED.status,
		    emoji = EXCLUDED.emoji,
		    image = EXCLUDED.image,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING group_id, user_id, status, emoji, image, expires_at, updated_at
	`

	out := &Entry{}
	err := r.db.QueryRowContext(ctx, query,
		e.GroupID,
		e.UserID,
		e.Message,
		e.Emoji,
		e.Image,
		e.ExpiresAt,
		e.UpdatedAt,
	).Scan(
		&out.GroupID,
		&out.UserID,
		&out.Message,
		&out.Emoji,
		&out.Image,
		&out.ExpiresAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert status: %w", err)
	}

	return out, nil
}

// DeleteExpired purges entries whose expiry has passed
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM group_statuses WHERE expires_at IS NOT NULL AND expires_at <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired statuses: %w", err)
	}

	return result.RowsAffected()
}
