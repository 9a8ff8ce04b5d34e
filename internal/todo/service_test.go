package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"huddle/internal/events"
)

type fakeMembers map[string]bool

func (f fakeMembers) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return f[groupID+"|"+userID], nil
}

type memoryTodoRepo struct {
	lists map[string]*List
	items map[string][]*Item // listID -> items
}

func newMemoryTodoRepo() *memoryTodoRepo {
	return &memoryTodoRepo{
		lists: make(map[string]*List),
		items: make(map[string][]*Item),
	}
}

func (r *memoryTodoRepo) CreateList(ctx context.Context, l *List) error {
	stored := *l
	stored.Items = nil
	r.lists[l.ID] = &stored
	return nil
}

func (r *memoryTodoRepo) CreateItems(ctx context.Context, items []*Item) error {
	for _, item := range items {
		stored := *item
		r.items[item.ListID] = append(r.items[item.ListID], &stored)
	}
	return nil
}

func (r *memoryTodoRepo) GetList(ctx context.Context, listID, groupID string) (*List, error) {
	l, ok := r.lists[listID]
	if !ok || l.GroupID != groupID {
		return nil, nil
	}
	out := *l
	out.Items = make([]*Item, 0, len(r.items[listID]))
	for _, item := range r.items[listID] {
		copied := *item
		out.Items = append(out.Items, &copied)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].Position < out.Items[j].Position })
	return &out, nil
}

func (r *memoryTodoRepo) ListByGroup(ctx context.Context, groupID string) ([]*List, error) {
	var out []*List
	for id, l := range r.lists {
		if l.GroupID != groupID {
			continue
		}
		full, _ := r.GetList(ctx, id, groupID)
		out = append(out, full)
	}
	return out, nil
}

func (r *memoryTodoRepo) DeleteList(ctx context.Context, listID string) error {
	delete(r.lists, listID)
	delete(r.items, listID)
	return nil
}

func (r *memoryTodoRepo) InsertItem(ctx context.Context, item *Item) error {
	stored := *item
	r.items[item.ListID] = append(r.items[item.ListID], &stored)
	return nil
}

func (r *memoryTodoRepo) SetCompleted(ctx context.Context, listID, itemID string, completed bool) (int64, error) {
	for _, item := range r.items[listID] {
		if item.ID == itemID {
			item.Completed = completed
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memoryTodoRepo) SetLabel(ctx context.Context, listID, itemID, label string) (int64, error) {
	for _, item := range r.items[listID] {
		if item.ID == itemID {
			item.Label = label
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memoryTodoRepo) RemoveItem(ctx context.Context, listID, itemID string) (int64, error) {
	items := r.items[listID]
	for i, item := range items {
		if item.ID == itemID {
			r.items[listID] = append(items[:i], items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memoryTodoRepo) SetPosition(ctx context.Context, listID, itemID string, position int) error {
	for _, item := range r.items[listID] {
		if item.ID == itemID {
			item.Position = position
			return nil
		}
	}
	return nil
}

func newTestTodoService() (*Service, *memoryTodoRepo) {
	repo := newMemoryTodoRepo()
	members := fakeMembers{"g1|alice": true, "g1|bob": true}
	svc := NewService(repo, members, events.NewBus())
	return svc, repo
}

func labels(l *List) []string {
	out := make([]string, len(l.Items))
	for i, item := range l.Items {
		out[i] = item.Label
	}
	return out
}

func TestCreateListCollapsesDuplicates(t *testing.T) {
	svc, _ := newTestTodoService()

	l, err := svc.CreateList(context.Background(), "g1", "alice", "Groceries", []string{"Milk", "milk", " Eggs ", ""})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got := labels(l)
	if len(got) != 2 || got[0] != "Milk" || got[1] != "Eggs" {
		t.Fatalf("expected [Milk Eggs], got %v", got)
	}
	for i, item := range l.Items {
		if item.Position != i {
			t.Fatalf("item %d has position %d", i, item.Position)
		}
	}
}

func TestCreateListValidation(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	if _, err := svc.CreateList(ctx, "g1", "alice", "  ", []string{"Milk"}); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{" ", ""}); !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems, got %v", err)
	}

	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = fmt.Sprintf("task %d", i)
	}
	if _, err := svc.CreateList(ctx, "g1", "alice", "Groceries", eleven); !errors.Is(err, ErrTooManyItems) {
		t.Fatalf("expected ErrTooManyItems, got %v", err)
	}

	if _, err := svc.CreateList(ctx, "g1", "stranger", "Groceries", []string{"Milk"}); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestAddItemAppendsAfterHighestPosition(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk", "Eggs"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.AddItem(ctx, "g1", l.ID, "bob", "Bread")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	last := updated.Items[len(updated.Items)-1]
	if last.Label != "Bread" || last.Position != 2 {
		t.Fatalf("expected Bread at position 2, got %q at %d", last.Label, last.Position)
	}
}

func TestAddItemRejectsDuplicatesAndFullLists(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.AddItem(ctx, "g1", l.ID, "bob", "MILK"); !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("expected ErrDuplicateItem, got %v", err)
	}

	for i := 0; i < 9; i++ {
		if _, err := svc.AddItem(ctx, "g1", l.ID, "bob", fmt.Sprintf("task %d", i)); err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
	}
	if _, err := svc.AddItem(ctx, "g1", l.ID, "bob", "one too many"); !errors.Is(err, ErrTooManyItems) {
		t.Fatalf("expected ErrTooManyItems on the 11th item, got %v", err)
	}
}

func TestToggleItemFlips(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	itemID := l.Items[0].ID

	updated, err := svc.ToggleItem(ctx, "g1", l.ID, itemID, "bob")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !updated.Items[0].Completed {
		t.Fatal("expected item completed after first toggle")
	}

	updated, err = svc.ToggleItem(ctx, "g1", l.ID, itemID, "bob")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if updated.Items[0].Completed {
		t.Fatal("expected item open again after second toggle")
	}

	if _, err := svc.ToggleItem(ctx, "g1", l.ID, "missing", "bob"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestSetItemCompletedWritesSentValue(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	itemID := l.Items[0].ID

	// writing the current value must not invert the item
	updated, err := svc.SetItemCompleted(ctx, "g1", l.ID, itemID, "bob", false)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if updated.Items[0].Completed {
		t.Fatal("expected item to stay incomplete when false is sent")
	}

	updated, err = svc.SetItemCompleted(ctx, "g1", l.ID, itemID, "bob", true)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !updated.Items[0].Completed {
		t.Fatal("expected item completed when true is sent")
	}

	// a retried true stays true
	updated, err = svc.SetItemCompleted(ctx, "g1", l.ID, itemID, "bob", true)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !updated.Items[0].Completed {
		t.Fatal("expected repeated true to be a no-op")
	}

	if _, err := svc.SetItemCompleted(ctx, "g1", l.ID, "missing", "bob", true); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRenameItem(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.RenameItem(ctx, "g1", l.ID, l.Items[0].ID, "bob", "Oat milk")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if updated.Items[0].Label != "Oat milk" {
		t.Fatalf("expected renamed label, got %q", updated.Items[0].Label)
	}

	if _, err := svc.RenameItem(ctx, "g1", l.ID, l.Items[0].ID, "bob", "  "); !errors.Is(err, ErrEmptyLabel) {
		t.Fatalf("expected ErrEmptyLabel, got %v", err)
	}
}

func TestRemoveItemMayEmptyTheList(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.RemoveItem(ctx, "g1", l.ID, l.Items[0].ID, "bob")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(updated.Items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(updated.Items))
	}
}

func TestReorderAssignsSequentialPositions(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk", "Eggs", "Bread"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	milk, eggs, bread := l.Items[0].ID, l.Items[1].ID, l.Items[2].ID

	updated, err := svc.Reorder(ctx, "g1", l.ID, "bob", []string{bread, milk, eggs})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}

	got := labels(updated)
	if got[0] != "Bread" || got[1] != "Milk" || got[2] != "Eggs" {
		t.Fatalf("expected [Bread Milk Eggs], got %v", got)
	}
	for i, item := range updated.Items {
		if item.Position != i {
			t.Fatalf("item %d has position %d", i, item.Position)
		}
	}
}

func TestReorderSkipsForeignIDs(t *testing.T) {
	svc, _ := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk", "Eggs"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	milk, eggs := l.Items[0].ID, l.Items[1].ID

	updated, err := svc.Reorder(ctx, "g1", l.ID, "bob", []string{eggs, "not-here", milk})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	got := labels(updated)
	if got[0] != "Eggs" || got[1] != "Milk" {
		t.Fatalf("expected [Eggs Milk], got %v", got)
	}

	if _, err := svc.Reorder(ctx, "g1", l.ID, "bob", nil); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestDeleteListIsCreatorOnly(t *testing.T) {
	svc, repo := newTestTodoService()
	ctx := context.Background()

	l, err := svc.CreateList(ctx, "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.DeleteList(ctx, "g1", l.ID, "bob"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if err := svc.DeleteList(ctx, "g1", l.ID, "alice"); err != nil {
		t.Fatalf("creator delete failed: %v", err)
	}
	if len(repo.lists) != 0 || len(repo.items) != 0 {
		t.Fatal("expected list and items removed")
	}
}

func TestListScopedToGroup(t *testing.T) {
	svc, repo := newTestTodoService()
	repo.lists["foreign"] = &List{ID: "foreign", GroupID: "g2", Title: "Elsewhere", CreatedBy: "alice"}

	if _, err := svc.ToggleItem(context.Background(), "g1", "foreign", "i1", "bob"); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
}
