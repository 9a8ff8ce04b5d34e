// Package reconcile implements the client-side contract for keeping a
// local view of one domain's group state in step with the server: an
// authoritative snapshot cache, push-notification handling, a poll
// fallback, optimistic mutations, and a local expiry sweep.
package reconcile

import (
	"context"
	"sync"
	"time"

	"huddle/internal/events"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultSweepInterval = 60 * time.Second
)

// FetchFunc retrieves the authoritative snapshot for a group.
type FetchFunc[S any] func(ctx context.Context, groupID string) (S, error)

// Options configures a Syncer.
type Options[S any] struct {
	// Fetch is the authoritative snapshot read. Required.
	Fetch FetchFunc[S]
	// Tables this domain watches on the change channel; notifications
	// for other tables are ignored.
	Tables []string
	// Visible reports whether the view is on screen. The poll fallback
	// is skipped while it returns false. Nil means always visible.
	Visible func() bool
	// PollInterval for the fallback re-pull. Defaults to 5s.
	PollInterval time.Duration
	// Prune drops locally expired entries from a snapshot, returning
	// the pruned snapshot and whether anything changed. Optional; used
	// for status expiry between refreshes.
	Prune func(snapshot S, now time.Time) (S, bool)
	// SweepInterval for Prune. Defaults to 60s.
	SweepInterval time.Duration
}

// Syncer keeps per-group snapshots of one domain. Every change signal,
// whether push or poll, funnels through the same refetch-and-replace
// path, so applying the same snapshot twice is a no-op and delivery
// order does not matter.
type Syncer[S any] struct {
	fetch         FetchFunc[S]
	tables        map[string]struct{}
	visible       func() bool
	pollInterval  time.Duration
	prune         func(S, time.Time) (S, bool)
	sweepInterval time.Duration

	mu        sync.Mutex
	snapshots map[string]S
	pending   int
}

func NewSyncer[S any](opts Options[S]) *Syncer[S] {
	s := &Syncer[S]{
		fetch:         opts.Fetch,
		tables:        make(map[string]struct{}, len(opts.Tables)),
		visible:       opts.Visible,
		pollInterval:  opts.PollInterval,
		prune:         opts.Prune,
		sweepInterval: opts.SweepInterval,
		snapshots:     make(map[string]S),
	}
	for _, t := range opts.Tables {
		s.tables[t] = struct{}{}
	}
	if s.visible == nil {
		s.visible = func() bool { return true }
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = defaultSweepInterval
	}
	return s
}

// Enter fetches the group's authoritative snapshot and replaces the
// local cache wholesale. Called when the client enters a group's scope.
func (s *Syncer[S]) Enter(ctx context.Context, groupID string) (S, error) {
	return s.refetch(ctx, groupID)
}

// Snapshot returns the cached snapshot for a group, if any.
func (s *Syncer[S]) Snapshot(groupID string) (S, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[groupID]
	return snap, ok
}

// Refresh re-pulls the authoritative snapshot. Safe to call from any
// trigger; redundant refreshes converge on the same state.
func (s *Syncer[S]) Refresh(ctx context.Context, groupID string) error {
	_, err := s.refetch(ctx, groupID)
	return err
}

func (s *Syncer[S]) refetch(ctx context.Context, groupID string) (S, error) {
	snap, err := s.fetch(ctx, groupID)
	if err != nil {
		var zero S
		return zero, err
	}
	if ctx.Err() != nil {
		// caller navigated away; do not apply a stale snapshot
		var zero S
		return zero, ctx.Err()
	}

	s.mu.Lock()
	s.snapshots[groupID] = snap
	s.mu.Unlock()
	return snap, nil
}

// Listen consumes the per-group change channel. A notification for a
// watched table is a dirty signal only: payloads may be partial (a
// vote-row delete carries just the old keys), so the snapshot is
// refetched rather than patched from the row.
func (s *Syncer[S]) Listen(ctx context.Context, ch <-chan events.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			if _, watched := s.tables[change.Table]; !watched {
				continue
			}
			_ = s.Refresh(ctx, change.GroupID)
		}
	}
}

// Run drives the poll fallback for one group, covering missed push
// notifications. Polls are skipped while the view is hidden and while
// a mutation is in flight, so stale reads never clobber an optimistic
// update. If a Prune hook is set it also runs the local expiry sweep,
// which touches only the cache and never the server.
func (s *Syncer[S]) Run(ctx context.Context, groupID string) {
	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()

	var sweep <-chan time.Time
	if s.prune != nil {
		t := time.NewTicker(s.sweepInterval)
		defer t.Stop()
		sweep = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if !s.visible() || s.mutating() {
				continue
			}
			_ = s.Refresh(ctx, groupID)
		case now := <-sweep:
			s.sweepLocked(groupID, now)
		}
	}
}

func (s *Syncer[S]) mutating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

func (s *Syncer[S]) sweepLocked(groupID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[groupID]
	if !ok {
		return
	}
	if pruned, changed := s.prune(snap, now); changed {
		s.snapshots[groupID] = pruned
	}
}

// Mutate runs one optimistic mutation: apply the guess locally, issue
// the authoritative request, then replace the cache with the server's
// returned snapshot on success or revert by refetching on failure.
// The server object always wins over the guess, since the server may
// normalize ordering or labels. If the caller's context ends before
// the response lands, the response is discarded.
func (s *Syncer[S]) Mutate(ctx context.Context, groupID string, optimistic func(S) S, request func(ctx context.Context) (S, error)) error {
	s.mu.Lock()
	if snap, ok := s.snapshots[groupID]; ok && optimistic != nil {
		s.snapshots[groupID] = optimistic(snap)
	}
	s.pending++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	snap, err := request(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		// revert by refetching the authoritative snapshot
		_ = s.Refresh(ctx, groupID)
		return err
	}

	s.mu.Lock()
	s.snapshots[groupID] = snap
	s.mu.Unlock()
	return nil
}
