package status

import (
	"context"
	"time"
)

// Entry is one member's presence message in a group. At most one live
// entry exists per (group, user); an entry whose expiry has passed is
// logically absent even while still stored.
type Entry struct {
	GroupID   string     `json:"groupId"`
	UserID    string     `json:"userId"`
	Message   string     `json:"status"`
	Emoji     *string    `json:"emoji,omitempty"`
	Image     *string    `json:"image,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Expired reports whether the entry's expiry instant is in the past.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// Repository handles status persistence
type Repository interface {
	// ListActive returns entries whose expiry is null or after now,
	// most recently updated first.
	ListActive(ctx context.Context, groupID string, now time.Time) ([]*Entry, error)
	// Upsert replaces the (group, user) entry, returning the stored row.
	Upsert(ctx context.Context, e *Entry) (*Entry, error)
	// DeleteExpired removes entries whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MembershipChecker gates all status operations on group membership.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}
