package poll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"huddle/internal/events"
)

const (
	minOptions = 2
	maxOptions = 6
)

// Common errors
var (
	ErrNotMember        = errors.New("not a member of this group")
	ErrEmptyQuestion    = errors.New("question is required")
	ErrTooFewOptions    = errors.New("at least two options are required")
	ErrTooManyOptions   = errors.New("too many options provided")
	ErrDuplicateOptions = errors.New("poll options must be unique")
	ErrPollNotFound     = errors.New("poll not found")
	ErrOptionNotFound   = errors.New("option not found for this poll")
	ErrNotCreator       = errors.New("only the poll creator can remove it")
)

// Service handles poll business logic
type Service struct {
	repo    Repository
	members MembershipChecker
	bus     *events.Bus
}

// NewService creates a new poll service
func NewService(repo Repository, members MembershipChecker, bus *events.Bus) *Service {
	return &Service{repo: repo, members: members, bus: bus}
}

// List returns the group's polls, newest first.
func (s *Service) List(ctx context.Context, groupID, userID string) ([]*Poll, error) {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	return s.repo.ListByGroup(ctx, groupID)
}

// Create stores a poll together with its options. If option insertion
// fails after the poll row committed, the poll row is deleted again so
// no optionless poll is ever visible.
func (s *Service) Create(ctx context.Context, groupID, creatorID, question string, options []string) (*Poll, error) {
	ok, err := s.members.IsMember(ctx, groupID, creatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	labels := make([]string, 0, len(options))
	for _, opt := range options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	if len(labels) < minOptions {
		return nil, ErrTooFewOptions
	}
	if len(labels) > maxOptions {
		return nil, ErrTooManyOptions
	}
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		key := strings.ToLower(label)
		if seen[key] {
			return nil, ErrDuplicateOptions
		}
		seen[key] = true
	}

	p := &Poll{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Question:  question,
		CreatedBy: creatorID,
	}
	if err := s.repo.CreatePoll(ctx, p); err != nil {
		return nil, err
	}

	opts := make([]*Option, len(labels))
	for i, label := range labels {
		opts[i] = &Option{
			ID:       uuid.NewString(),
			PollID:   p.ID,
			Label:    label,
			Position: i,
			Voters:   []string{},
		}
	}
	if err := s.repo.CreateOptions(ctx, opts); err != nil {
		// compensating delete so no orphan poll survives
		if delErr := s.repo.DeletePoll(ctx, p.ID); delErr != nil {
			return nil, fmt.Errorf("option insert failed (%v), rollback failed: %w", err, delErr)
		}
		return nil, err
	}
	p.Options = opts

	s.bus.Publish(events.Change{
		Table:   "group_polls",
		Event:   events.EventInsert,
		GroupID: groupID,
		Row:     p,
	})

	return p, nil
}

// Vote applies toggle-replace semantics: the voter's existing vote is
// always removed first, then a new one inserted only when optionID is
// non-nil. A nil optionID therefore clears the vote. Returns the
// refreshed poll.
func (s *Service) Vote(ctx context.Context, groupID, pollID, voterID string, optionID *string) (*Poll, error) {
	ok, err := s.members.IsMember(ctx, groupID, voterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	p, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.GroupID != groupID {
		return nil, ErrPollNotFound
	}

	if optionID != nil {
		found := false
		for _, opt := range p.Options {
			if opt.ID == *optionID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrOptionNotFound
		}
	}

	if err := s.repo.DeleteVotes(ctx, pollID, voterID); err != nil {
		return nil, err
	}
	if optionID != nil {
		if err := s.repo.InsertVote(ctx, pollID, *optionID, voterID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPollNotFound
	}

	event := events.EventUpdate
	if optionID == nil {
		event = events.EventDelete
	}
	s.bus.Publish(events.Change{
		Table:   "group_poll_votes",
		Event:   event,
		GroupID: groupID,
		Row:     map[string]string{"pollId": pollID, "userId": voterID},
	})

	return updated, nil
}

// Delete removes a poll and cascades to its options and votes. Only
// the creator may delete; membership alone reads as Forbidden, not
// NotFound, so members learn the poll exists but is not theirs.
func (s *Service) Delete(ctx context.Context, groupID, pollID, requesterID string) error {
	ok, err := s.members.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}

	p, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if p == nil || p.GroupID != groupID {
		return ErrPollNotFound
	}
	if p.CreatedBy != requesterID {
		return ErrNotCreator
	}

	if err := s.repo.DeletePoll(ctx, pollID); err != nil {
		return err
	}

	s.bus.Publish(events.Change{
		Table:   "group_polls",
		Event:   events.EventDelete,
		GroupID: groupID,
		Row:     map[string]string{"id": pollID},
	})

	return nil
}
