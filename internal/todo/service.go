package todo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"huddle/internal/events"
)

const maxItems = 10

// Common errors
var (
	ErrNotMember     = errors.New("not a member of this group")
	ErrEmptyTitle    = errors.New("list title is required")
	ErrEmptyLabel    = errors.New("item label is required")
	ErrNoItems       = errors.New("at least one item is required")
	ErrTooManyItems  = errors.New("lists can include up to 10 tasks")
	ErrDuplicateItem = errors.New("item already on the list")
	ErrEmptyOrder    = errors.New("item order is required")
	ErrListNotFound  = errors.New("list not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrNoUpdates     = errors.New("no updates provided")
	ErrNotCreator    = errors.New("only the list creator can remove it")
)

// Service handles to-do business logic
type Service struct {
	repo    Repository
	members MembershipChecker
	bus     *events.Bus
}

// NewService creates a new to-do service
func NewService(repo Repository, members MembershipChecker, bus *events.Bus) *Service {
	return &Service{repo: repo, members: members, bus: bus}
}

// List returns the group's to-do lists, newest first.
func (s *Service) List(ctx context.Context, groupID, userID string) ([]*List, error) {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	return s.repo.ListByGroup(ctx, groupID)
}

// CreateList stores a list with its initial items. Items are trimmed,
// empties dropped, and case-insensitive duplicates collapsed keeping
// the first occurrence; survivors take positions 0..n-1.
func (s *Service) CreateList(ctx context.Context, groupID, creatorID, title string, items []string) (*List, error) {
	ok, err := s.members.IsMember(ctx, groupID, creatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	labels := uniquePreserveOrder(items)
	if len(labels) == 0 {
		return nil, ErrNoItems
	}
	if len(labels) > maxItems {
		return nil, ErrTooManyItems
	}

	l := &List{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Title:     title,
		CreatedBy: creatorID,
	}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return nil, err
	}

	l.Items = make([]*Item, len(labels))
	for i, label := range labels {
		l.Items[i] = &Item{
			ID:       uuid.NewString(),
			ListID:   l.ID,
			Label:    label,
			Position: i,
		}
	}
	if err := s.repo.CreateItems(ctx, l.Items); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Change{
		Table:   "group_lists",
		Event:   events.EventInsert,
		GroupID: groupID,
		Row:     l,
	})

	return l, nil
}

// AddItem appends one item at max(position)+1. Rejects a full list and
// case-insensitive duplicates.
func (s *Service) AddItem(ctx context.Context, groupID, listID, userID, label string) (*List, error) {
	l, err := s.guardList(ctx, groupID, listID, userID)
	if err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if len(l.Items) >= maxItems {
		return nil, ErrTooManyItems
	}
	lower := strings.ToLower(label)
	for _, item := range l.Items {
		if strings.ToLower(item.Label) == lower {
			return nil, ErrDuplicateItem
		}
	}

	position := 0
	for _, item := range l.Items {
		if item.Position >= position {
			position = item.Position + 1
		}
	}

	if err := s.repo.InsertItem(ctx, &Item{
		ID:       uuid.NewString(),
		ListID:   listID,
		Label:    label,
		Position: position,
	}); err != nil {
		return nil, err
	}

	return s.refresh(ctx, groupID, listID, events.EventInsert)
}

// ToggleItem flips an item's completed flag.
func (s *Service) ToggleItem(ctx context.Context, groupID, listID, itemID, userID string) (*List, error) {
	l, err := s.guardList(ctx, groupID, listID, userID)
	if err != nil {
		return nil, err
	}

	var current *Item
	for _, item := range l.Items {
		if item.ID == itemID {
			current = item
			break
		}
	}
	if current == nil {
		return nil, ErrItemNotFound
	}

	return s.setCompleted(ctx, groupID, listID, itemID, !current.Completed)
}

// SetItemCompleted writes the completed flag as sent. Writing the
// current value again is a harmless no-op, so retried or replayed
// requests never invert the item's state.
func (s *Service) SetItemCompleted(ctx context.Context, groupID, listID, itemID, userID string, completed bool) (*List, error) {
	if _, err := s.guardList(ctx, groupID, listID, userID); err != nil {
		return nil, err
	}

	return s.setCompleted(ctx, groupID, listID, itemID, completed)
}

func (s *Service) setCompleted(ctx context.Context, groupID, listID, itemID string, completed bool) (*List, error) {
	n, err := s.repo.SetCompleted(ctx, listID, itemID, completed)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrItemNotFound
	}

	return s.refresh(ctx, groupID, listID, events.EventUpdate)
}

// RenameItem replaces an item's label.
func (s *Service) RenameItem(ctx context.Context, groupID, listID, itemID, userID, label string) (*List, error) {
	if _, err := s.guardList(ctx, groupID, listID, userID); err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}

	n, err := s.repo.SetLabel(ctx, listID, itemID, label)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrItemNotFound
	}

	return s.refresh(ctx, groupID, listID, events.EventUpdate)
}

// RemoveItem deletes an item. A list may shrink to zero items; the
// minimum-items rule applies at creation only.
func (s *Service) RemoveItem(ctx context.Context, groupID, listID, itemID, userID string) (*List, error) {
	if _, err := s.guardList(ctx, groupID, listID, userID); err != nil {
		return nil, err
	}

	n, err := s.repo.RemoveItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrItemNotFound
	}

	return s.refresh(ctx, groupID, listID, events.EventDelete)
}

// Reorder assigns position = index for each id in sequence. Ids not in
// the list fall out of the store-level id AND list_id filter and are
// skipped. A failure partway leaves mixed positions, so the caller gets
// an error and must re-fetch the snapshot to resync.
func (s *Service) Reorder(ctx context.Context, groupID, listID, userID string, orderedItemIDs []string) (*List, error) {
	if _, err := s.guardList(ctx, groupID, listID, userID); err != nil {
		return nil, err
	}

	if len(orderedItemIDs) == 0 {
		return nil, ErrEmptyOrder
	}

	for index, itemID := range orderedItemIDs {
		if err := s.repo.SetPosition(ctx, listID, itemID, index); err != nil {
			return nil, err
		}
	}

	return s.refresh(ctx, groupID, listID, events.EventUpdate)
}

// DeleteList removes a list and its items. Creator only; a plain
// member reads Forbidden, not NotFound.
func (s *Service) DeleteList(ctx context.Context, groupID, listID, requesterID string) error {
	l, err := s.guardList(ctx, groupID, listID, requesterID)
	if err != nil {
		return err
	}
	if l.CreatedBy != requesterID {
		return ErrNotCreator
	}

	if err := s.repo.DeleteList(ctx, listID); err != nil {
		return err
	}

	s.bus.Publish(events.Change{
		Table:   "group_lists",
		Event:   events.EventDelete,
		GroupID: groupID,
		Row:     map[string]string{"id": listID},
	})

	return nil
}

// guardList checks membership and resolves the list within the group.
func (s *Service) guardList(ctx context.Context, groupID, listID, userID string) (*List, error) {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	l, err := s.repo.GetList(ctx, listID, groupID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrListNotFound
	}
	return l, nil
}

func (s *Service) refresh(ctx context.Context, groupID, listID string, event events.EventType) (*List, error) {
	l, err := s.repo.GetList(ctx, listID, groupID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrListNotFound
	}

	s.bus.Publish(events.Change{
		Table:   "group_list_items",
		Event:   event,
		GroupID: groupID,
		Row:     map[string]string{"listId": listID},
	})

	return l, nil
}

// uniquePreserveOrder trims, drops empties and collapses
// case-insensitive duplicates keeping first-seen order.
func uniquePreserveOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}
