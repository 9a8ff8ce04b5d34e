package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"huddle/internal/events"
	"huddle/internal/status"
)

// fakeServer hands out versioned string snapshots and counts fetches.
type fakeServer struct {
	mu      sync.Mutex
	state   map[string]string
	fetches int
	err     error
}

func newFakeServer() *fakeServer {
	return &fakeServer{state: make(map[string]string)}
}

func (f *fakeServer) set(groupID, snapshot string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state[groupID] = snapshot
}

func (f *fakeServer) fetch(ctx context.Context, groupID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return "", f.err
	}
	return f.state[groupID], nil
}

func (f *fakeServer) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestEnterCachesSnapshot(t *testing.T) {
	server := newFakeServer()
	server.set("g1", "v1")
	syncer := NewSyncer(Options[string]{Fetch: server.fetch})

	snap, err := syncer.Enter(context.Background(), "g1")
	if err != nil {
		t.Fatalf("enter failed: %v", err)
	}
	if snap != "v1" {
		t.Fatalf("expected v1, got %q", snap)
	}

	cached, ok := syncer.Snapshot("g1")
	if !ok || cached != "v1" {
		t.Fatalf("expected cached v1, got %q (%v)", cached, ok)
	}
	if _, ok := syncer.Snapshot("g2"); ok {
		t.Fatal("expected no snapshot for an unentered group")
	}
}

func TestListenRefetchesWatchedTablesOnly(t *testing.T) {
	server := newFakeServer()
	server.set("g1", "v1")
	syncer := NewSyncer(Options[string]{Fetch: server.fetch, Tables: []string{"group_polls"}})

	if _, err := syncer.Enter(context.Background(), "g1"); err != nil {
		t.Fatalf("enter failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan events.Change, 4)
	go syncer.Listen(ctx, ch)

	server.set("g1", "v2")
	ch <- events.Change{Table: "group_statuses", Event: events.EventUpdate, GroupID: "g1"}
	ch <- events.Change{Table: "group_polls", Event: events.EventInsert, GroupID: "g1"}

	waitFor(t, func() bool {
		snap, _ := syncer.Snapshot("g1")
		return snap == "v2"
	})
	// only Enter plus the watched-table refetch hit the server
	if got := server.fetchCount(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestMutateReplacesWithServerResult(t *testing.T) {
	server := newFakeServer()
	server.set("g1", "v1")
	syncer := NewSyncer(Options[string]{Fetch: server.fetch})

	if _, err := syncer.Enter(context.Background(), "g1"); err != nil {
		t.Fatalf("enter failed: %v", err)
	}

	var sawOptimistic string
	err := syncer.Mutate(context.Background(), "g1",
		func(snap string) string { return snap + "+guess" },
		func(ctx context.Context) (string, error) {
			sawOptimistic, _ = syncer.Snapshot("g1")
			return "v2-normalized", nil
		},
	)
	if err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	if sawOptimistic != "v1+guess" {
		t.Fatalf("expected optimistic guess applied before the request, got %q", sawOptimistic)
	}
	snap, _ := syncer.Snapshot("g1")
	if snap != "v2-normalized" {
		t.Fatalf("expected server result to win, got %q", snap)
	}
}

func TestMutateRevertsByRefetchOnFailure(t *testing.T) {
	server := newFakeServer()
	server.set("g1", "v1")
	syncer := NewSyncer(Options[string]{Fetch: server.fetch})

	if _, err := syncer.Enter(context.Background(), "g1"); err != nil {
		t.Fatalf("enter failed: %v", err)
	}

	boom := errors.New("rejected")
	err := syncer.Mutate(context.Background(), "g1",
		func(snap string) string { return "guess" },
		func(ctx context.Context) (string, error) { return "", boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected request error, got %v", err)
	}

	snap, _ := syncer.Snapshot("g1")
	if snap != "v1" {
		t.Fatalf("expected cache reverted to server truth, got %q", snap)
	}
}

func TestMutateDiscardsResponseAfterCancel(t *testing.T) {
	server := newFakeServer()
	server.set("g1", "v1")
	syncer := NewSyncer(Options[string]{Fetch: server.fetch})

	if _, err := syncer.Enter(context.Background(), "g1"); err != nil {
		t.Fatalf("enter failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := syncer.Mutate(ctx, "g1",
		nil,
		func(ctx context.Context) (string, error) {
			cancel()
			return "late-response", nil
		},
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	snap, _ := syncer.Snapshot("g1")
	if snap == "late-response" {
		t.Fatal("expected late response discarded")
	}
}

func TestRunSkipsPollWhileHidden(t *testing.T) {
	server := newFakeServer()
	server.set("g1", "v1")

	var mu sync.Mutex
	visible := false
	syncer := NewSyncer(Options[string]{
		Fetch:        server.fetch,
		PollInterval: 5 * time.Millisecond,
		Visible: func() bool {
			mu.Lock()
			defer mu.Unlock()
			return visible
		},
	})

	if _, err := syncer.Enter(context.Background(), "g1"); err != nil {
		t.Fatalf("enter failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx, "g1")

	time.Sleep(50 * time.Millisecond)
	if got := server.fetchCount(); got != 1 {
		t.Fatalf("expected no polling while hidden, got %d fetches", got)
	}

	server.set("g1", "v2")
	mu.Lock()
	visible = true
	mu.Unlock()

	waitFor(t, func() bool {
		snap, _ := syncer.Snapshot("g1")
		return snap == "v2"
	})
}

func TestRunSweepPrunesExpiredEntries(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	entries := []*status.Entry{
		{GroupID: "g1", UserID: "u1", Message: "gone", ExpiresAt: &past},
		{GroupID: "g1", UserID: "u2", Message: "here", ExpiresAt: &future},
		{GroupID: "g1", UserID: "u3", Message: "forever"},
	}

	syncer := NewSyncer(Options[[]*status.Entry]{
		Fetch: func(ctx context.Context, groupID string) ([]*status.Entry, error) {
			return entries, nil
		},
		PollInterval:  time.Hour,
		SweepInterval: 5 * time.Millisecond,
		Prune:         PruneExpiredStatuses,
	})

	if _, err := syncer.Enter(context.Background(), "g1"); err != nil {
		t.Fatalf("enter failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx, "g1")

	waitFor(t, func() bool {
		snap, _ := syncer.Snapshot("g1")
		return len(snap) == 2
	})
	snap, _ := syncer.Snapshot("g1")
	for _, e := range snap {
		if e.Message == "gone" {
			t.Fatal("expected expired entry pruned")
		}
	}
}

func TestPruneExpiredStatuses(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)

	live := &status.Entry{UserID: "u1", Message: "live"}
	dead := &status.Entry{UserID: "u2", Message: "dead", ExpiresAt: &past}

	kept, changed := PruneExpiredStatuses([]*status.Entry{live, dead}, now)
	if !changed || len(kept) != 1 || kept[0] != live {
		t.Fatalf("expected only the live entry kept, got %v (changed=%v)", kept, changed)
	}

	same, changed := PruneExpiredStatuses([]*status.Entry{live}, now)
	if changed || len(same) != 1 {
		t.Fatalf("expected untouched slice, got %v (changed=%v)", same, changed)
	}
}
