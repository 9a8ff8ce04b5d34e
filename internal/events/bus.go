package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Change is the tuple delivered to subscribers. Row is a dirty hint only:
// delete events carry just the removed row's keys, so consumers re-fetch
// the affected domain instead of merging fields from it.
type Change struct {
	Table   string    `json:"table"`
	Event   EventType `json:"event"`
	GroupID string    `json:"group_id"`
	Row     any       `json:"row,omitempty"`
}

// Bus fans group-scoped changes out to in-process subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[chan Change]struct{}
}

func NewBus() *Bus { return &Bus{subs: make(map[string]map[chan Change]struct{})} }

func (b *Bus) Subscribe(groupID string) (ch chan Change, cancel func()) {
	ch = make(chan Change, 16)
	b.mu.Lock()
	if b.subs[groupID] == nil {
		b.subs[groupID] = make(map[chan Change]struct{})
	}
	b.subs[groupID][ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		if subs, ok := b.subs[groupID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subs, groupID)
			}
		}
		b.mu.Unlock()
		close(ch)
	}
}

func (b *Bus) Publish(ev Change) {
	b.mu.RLock()
	subs := b.subs[ev.GroupID]
	for ch := range subs {
		select {
		case ch <- ev:
		default: // drop if slow
		}
	}
	b.mu.RUnlock()
}

// ServeSSE streams a group's changes over a single SSE connection.
func (b *Bus) ServeSSE(w http.ResponseWriter, r *http.Request, groupID string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := b.Subscribe(groupID)
	defer cancel()

	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// heartbeat comment to keep connection alive through proxies
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(data)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
