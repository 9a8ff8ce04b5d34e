package poll

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepository persists polls, options and votes in Postgres
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new poll repository
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreatePoll inserts the poll row
func (r *PostgresRepository) CreatePoll(ctx context.Context, p *Poll) error {
	query := `
		INSERT INTO group_polls (id, group_id, question, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.GroupID, p.Question, p.CreatedBy).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}

	return nil
}

// CreateOptions inserts the poll's option rows
func (r *PostgresRepository) CreateOptions(ctx context.Context, opts []*Option) error {
	query := `
		INSERT INTO group_poll_options (id, poll_id, label, position)
		VALUES ($1, $2, $3, $4)
	`

	for _, opt := range opts {
		if _, err := r.db.ExecContext(ctx, query, opt.ID, opt.PollID, opt.Label, opt.Position); err != nil {
			return fmt.Errorf("failed to create poll option: %w", err)
		}
	}

	return nil
}

// GetPoll retrieves a poll with its options and voter ids
func (r *PostgresRepository) GetPoll(ctx context.Context, pollID string) (*Poll, error) {
	query := `
		SELECT id, group_id, question, created_by, created_at
		FROM group_polls
		WHERE id = $1
	`

	p := &Poll{}
	err := r.db.QueryRowContext(ctx, query, pollID).Scan(
		&p.ID,
		&p.GroupID,
		&p.Question,
		&p.CreatedBy,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	if err := r.loadOptions(ctx, []*Poll{p}); err != nil {
		return nil, err
	}

	return p, nil
}

// ListByGroup retrieves a group's polls, newest first
func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID string) ([]*Poll, error) {
	query := `
		SELECT id, group_id, question, created_by, created_at
		FROM group_polls
		WHERE group_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var polls []*Poll
	for rows.Next() {
		p := &Poll{}
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Question, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadOptions(ctx, polls); err != nil {
		return nil, err
	}

	return polls, nil
}

// loadOptions fills each poll's ordered options and their voter ids
func (r *PostgresRepository) loadOptions(ctx context.Context, polls []*Poll) error {
	byID := make(map[string]*Poll, len(polls))
	for _, p := range polls {
		p.Options = []*Option{}
		byID[p.ID] = p
	}
	if len(polls) == 0 {
		return nil
	}

	query := `
		SELECT o.id, o.poll_id, o.label, o.position, v.user_id
		FROM group_poll_options o
		LEFT JOIN group_poll_votes v ON v.option_id = o.id
		WHERE o.poll_id = ANY($1)
		ORDER BY o.poll_id, o.position
	`

	ids := make([]string, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.ID)
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load poll options: %w", err)
	}
	defer rows.Close()

	options := make(map[string]*Option)
	for rows.Next() {
		var (
			optID, pollID, label string
			position             int
			voter                sql.NullString
		)
		if err := rows.Scan(&optID, &pollID, &label, &position, &voter); err != nil {
			return fmt.Errorf("failed to scan poll option: %w", err)
		}

		opt, ok := options[optID]
		if !ok {
			opt = &Option{ID: optID, PollID: pollID, Label: label, Position: position, Voters: []string{}}
			options[optID] = opt
			if p, ok := byID[pollID]; ok {
				p.Options = append(p.Options, opt)
			}
		}
		if voter.Valid {
			opt.Voters = append(opt.Voters, voter.String)
		}
	}

	return rows.Err()
}

// DeletePoll removes the poll; options and votes cascade
func (r *PostgresRepository) DeletePoll(ctx context.Context, pollID string) error {
	query := `DELETE FROM group_polls WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, pollID); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}

	return nil
}

// DeleteVotes removes the voter's existing vote rows for the poll
func (r *PostgresRepository) DeleteVotes(ctx context.Context, pollID, userID string) error {
	query := `DELETE FROM group_poll_votes WHERE poll_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, pollID, userID); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}

	return nil
}

// InsertVote records one vote for an option
func (r *PostgresRepository) InsertVote(ctx context.Context, pollID, optionID, userID string) error {
	query := `
		INSERT INTO group_poll_votes (poll_id, option_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, pollID, optionID, userID); err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	return nil
}
