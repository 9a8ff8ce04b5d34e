package reconcile

import (
	"time"

	"huddle/internal/status"
)

// PruneExpiredStatuses is the Prune hook for a status Syncer: it drops
// cached entries whose expiry instant has passed, keeping the local
// view honest between server refreshes.
func PruneExpiredStatuses(entries []*status.Entry, now time.Time) ([]*status.Entry, bool) {
	kept := entries[:0:0]
	changed := false
	for _, e := range entries {
		if e.Expired(now) {
			changed = true
			continue
		}
		kept = append(kept, e)
	}
	if !changed {
		return entries, false
	}
	return kept, true
}
