package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"huddle/internal/events"
)

// Common errors
var (
	ErrNotMember     = errors.New("not a member of this group")
	ErrEmptyMessage  = errors.New("status text is required")
	ErrInvalidExpiry = errors.New("invalid expiry window")
)

// expiryWindows is the fixed enumeration a status may live for.
// "never" stores a null expiry.
var expiryWindows = map[string]time.Duration{
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"8h":  8 * time.Hour,
	"24h": 24 * time.Hour,
}

// Service handles status business logic
type Service struct {
	repo    Repository
	members MembershipChecker
	bus     *events.Bus
	now     func() time.Time
}

// NewService creates a new status service
func NewService(repo Repository, members MembershipChecker, bus *events.Bus) *Service {
	return &Service{repo: repo, members: members, bus: bus, now: time.Now}
}

// List returns the group's live statuses, most recently updated first.
func (s *Service) List(ctx context.Context, groupID, userID string) ([]*Entry, error) {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	return s.repo.ListActive(ctx, groupID, s.now())
}

// Put upserts the caller's status. A second put from the same member
// overwrites the first, resetting both timestamp and expiry.
func (s *Service) Put(ctx context.Context, groupID, userID, message string, emoji, image *string, expiresIn string) (*Entry, error) {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	now := s.now()
	var expiresAt *time.Time
	if expiresIn != "" && expiresIn != "never" {
		window, ok := expiryWindows[expiresIn]
		if !ok {
			return nil, ErrInvalidExpiry
		}
		t := now.Add(window)
		expiresAt = &t
	}

	if emoji != nil {
		trimmed := strings.TrimSpace(*emoji)
		if trimmed == "" {
			emoji = nil
		} else {
			emoji = &trimmed
		}
	}

	entry, err := s.repo.Upsert(ctx, &Entry{
		GroupID:   groupID,
		UserID:    userID,
		Message:   message,
		Emoji:     emoji,
		Image:     image,
		ExpiresAt: expiresAt,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.Change{
		Table:   "group_statuses",
		Event:   events.EventUpdate,
		GroupID: groupID,
		Row:     entry,
	})

	return entry, nil
}
