package todo

import (
	"context"
	"time"
)

// List is an ordered to-do list owned by its creator
type List struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Items     []*Item   `json:"items"`
}

// Item is one entry in a list. Position defines the observable order;
// removal may leave gaps, a reorder rewrites positions as a dense
// 0-based sequence.
type Item struct {
	ID        string    `json:"id"`
	ListID    string    `json:"listId"`
	Label     string    `json:"label"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository handles to-do list persistence
type Repository interface {
	CreateList(ctx context.Context, l *List) error
	CreateItems(ctx context.Context, items []*Item) error
	// GetList returns the list with items ordered by position, nil if
	// the (listID, groupID) pair does not match.
	GetList(ctx context.Context, listID, groupID string) (*List, error)
	ListByGroup(ctx context.Context, groupID string) ([]*List, error)
	DeleteList(ctx context.Context, listID string) error
	InsertItem(ctx context.Context, item *Item) error
	// SetCompleted writes the completed flag; returns affected row count.
	SetCompleted(ctx context.Context, listID, itemID string, completed bool) (int64, error)
	// SetLabel renames an item; returns affected row count.
	SetLabel(ctx context.Context, listID, itemID, label string) (int64, error)
	// RemoveItem deletes an item; returns affected row count.
	RemoveItem(ctx context.Context, listID, itemID string) (int64, error)
	// SetPosition updates one item's position, filtered by id AND
	// list id, so foreign ids fall through silently.
	SetPosition(ctx context.Context, listID, itemID string, position int) error
}

// MembershipChecker gates all to-do operations on group membership.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}
