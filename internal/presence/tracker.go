// Package presence keeps a best-effort, client-reported viewer count per room.
//
// Counts live in process memory only and are reset on restart. There is no
// per-participant deduplication: a client that disconnects without sending
// leave keeps the count high until another leave arrives, so callers must
// treat counts as approximate.
package presence

import "sync"

// Action is a client-reported presence signal.
type Action string

const (
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

// Observer is told the new count whenever a room changes.
type Observer interface {
	SetViewers(room string, count int)
}

// Tracker maps room names to positive viewer counts. A room with no entry has zero viewers.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int
	obs    Observer
}

// NewTracker returns an empty tracker. obs may be nil.
func NewTracker(obs Observer) *Tracker {
	return &Tracker{
		counts: make(map[string]int),
		obs:    obs,
	}
}

// Join adds one viewer to room and returns the new count.
func (t *Tracker) Join(room string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.counts[room] + 1
	t.counts[room] = n
	t.notify(room, n)
	return n
}

// Leave removes one viewer from room, never going below zero, and returns the new count.
// A room that reaches zero is dropped from the map.
func (t *Tracker) Leave(room string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.counts[room] - 1
	if n <= 0 {
		_, existed := t.counts[room]
		delete(t.counts, room)
		if existed {
			t.notify(room, 0)
		}
		return 0
	}
	t.counts[room] = n
	t.notify(room, n)
	return n
}

// Apply runs action against room. Unknown actions leave state untouched and report applied=false.
func (t *Tracker) Apply(room string, action Action) (count int, applied bool) {
	switch action {
	case ActionJoin:
		return t.Join(room), true
	case ActionLeave:
		return t.Leave(room), true
	default:
		return t.Count(room), false
	}
}

// Count returns the current viewers for room, zero when absent.
func (t *Tracker) Count(room string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[room]
}

// Has reports whether room currently has an entry.
func (t *Tracker) Has(room string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.counts[room]
	return ok
}

// Len returns the number of rooms with at least one viewer.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counts)
}

// notify runs under t.mu so observers see updates in order.
func (t *Tracker) notify(room string, n int) {
	if t.obs != nil {
		t.obs.SetViewers(room, n)
	}
}
