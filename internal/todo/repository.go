package todo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepository persists to-do lists and items in Postgres
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new to-do repository
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateList inserts the list row
func (r *PostgresRepository) CreateList(ctx context.Context, l *List) error {
	query := `
		INSERT INTO group_lists (id, group_id, title, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, l.ID, l.GroupID, l.Title, l.CreatedBy).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}

	return nil
}

// CreateItems inserts the list's initial items
func (r *PostgresRepository) CreateItems(ctx context.Context, items []*Item) error {
	query := `
		INSERT INTO group_list_items (id, list_id, label, completed, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	for _, item := range items {
		err := r.db.QueryRowContext(ctx, query,
			item.ID,
			item.ListID,
			item.Label,
			item.Completed,
			item.Position,
		).Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create list item: %w", err)
		}
	}

	return nil
}

// GetList retrieves a list with its items ordered by position
func (r *PostgresRepository) GetList(ctx context.Context, listID, groupID string) (*List, error) {
	query := `
		SELECT id, group_id, title, created_by, created_at
		FROM group_lists
		WHERE id = $1 AND group_id = $2
	`

	l := &List{}
	err := r.db.QueryRowContext(ctx, query, listID, groupID).Scan(
		&l.ID,
		&l.GroupID,
		&l.Title,
		&l.CreatedBy,
		&l.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	if err := r.loadItems(ctx, []*List{l}); err != nil {
		return nil, err
	}

	return l, nil
}

// ListByGroup retrieves a group's lists, newest first
func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID string) ([]*List, error) {
	query := `
		SELECT id, group_id, title, created_by, created_at
		FROM group_lists
		WHERE group_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todo lists: %w", err)
	}
	defer rows.Close()

	var lists []*List
	for rows.Next() {
		l := &List{}
		if err := rows.Scan(&l.ID, &l.GroupID, &l.Title, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, lists); err != nil {
		return nil, err
	}

	return lists, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, lists []*List) error {
	byID := make(map[string]*List, len(lists))
	ids := make([]string, 0, len(lists))
	for _, l := range lists {
		l.Items = []*Item{}
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	query := `
		SELECT id, list_id, label, completed, position, created_at
		FROM group_list_items
		WHERE list_id = ANY($1)
		ORDER BY list_id, position, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &Item{}
		if err := rows.Scan(
			&item.ID,
			&item.ListID,
			&item.Label,
			&item.Completed,
			&item.Position,
			&item.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan list item: %w", err)
		}
		if l, ok := byID[item.ListID]; ok {
			l.Items = append(l.Items, item)
		}
	}

	return rows.Err()
}

// DeleteList removes the list; items cascade
func (r *PostgresRepository) DeleteList(ctx context.Context, listID string) error {
	query := `DELETE FROM group_lists WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, listID); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	return nil
}

// InsertItem appends one item
func (r *PostgresRepository) InsertItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO group_list_items (id, list_id, label, completed, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		item.ID,
		item.ListID,
		item.Label,
		item.Completed,
		item.Position,
	).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// SetCompleted writes an item's completed flag
func (r *PostgresRepository) SetCompleted(ctx context.Context, listID, itemID string, completed bool) (int64, error) {
	query := `UPDATE group_list_items SET completed = $3 WHERE id = $1 AND list_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, listID, completed)
	if err != nil {
		return 0, fmt.Errorf("failed to update item: %w", err)
	}

	return result.RowsAffected()
}

// SetLabel renames an item
func (r *PostgresRepository) SetLabel(ctx context.Context, listID, itemID, label string) (int64, error) {
	query := `UPDATE group_list_items SET label = $3 WHERE id = $1 AND list_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, listID, label)
	if err != nil {
		return 0, fmt.Errorf("failed to rename item: %w", err)
	}

	return result.RowsAffected()
}

// RemoveItem deletes an item
func (r *PostgresRepository) RemoveItem(ctx context.Context, listID, itemID string) (int64, error) {
	query := `DELETE FROM group_list_items WHERE id = $1 AND list_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, listID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove item: %w", err)
	}

	return result.RowsAffected()
}

// SetPosition moves one item. The id AND list_id filter makes foreign
// ids a silent no-op.
func (r *PostgresRepository) SetPosition(ctx context.Context, listID, itemID string, position int) error {
	query := `UPDATE group_list_items SET position = $3 WHERE id = $1 AND list_id = $2`

	if _, err := r.db.ExecContext(ctx, query, itemID, listID, position); err != nil {
		return fmt.Errorf("failed to set item position: %w", err)
	}

	return nil
}
