package group

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository persists groups and memberships in Postgres
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetGroup retrieves a group by its ID
func (r *PostgresRepository) GetGroup(ctx context.Context, id string) (*Group, error) {
	query := `
		SELECT id, name, icon, preset, owner_id, created_at
		FROM groups
		WHERE id = $1
	`

	g := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID,
		&g.Name,
		&g.Icon,
		&g.Preset,
		&g.OwnerID,
		&g.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return g, nil
}

// GetMember retrieves the membership row for a (group, user) pair
func (r *PostgresRepository) GetMember(ctx context.Context, groupID, userID string) (*Member, error) {
	query := `
		SELECT group_id, user_id, role, invited_by, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	m := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&m.GroupID,
		&m.UserID,
		&m.Role,
		&m.InvitedBy,
		&m.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return m, nil
}

// ListMembers retrieves all members of a group
func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]*Member, error) {
	query := `
		SELECT group_id, user_id, role, invited_by, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(
			&m.GroupID,
			&m.UserID,
			&m.Role,
			&m.InvitedBy,
			&m.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// UpsertMember inserts a membership row, keeping the existing one on conflict
func (r *PostgresRepository) UpsertMember(ctx context.Context, m *Member) (*Member, error) {
	query := `
		INSERT INTO group_members (group_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO UPDATE SET role = group_members.role
		RETURNING group_id, user_id, role, invited_by, joined_at
	`

	out := &Member{}
	err := r.db.QueryRowContext(ctx, query, m.GroupID, m.UserID, m.Role, m.InvitedBy).Scan(
		&out.GroupID,
		&out.UserID,
		&out.Role,
		&out.InvitedBy,
		&out.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member: %w", err)
	}

	return out, nil
}

// RemoveMember deletes a user's membership row
func (r *PostgresRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
