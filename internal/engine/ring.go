package engine

import (
	"errors"

	"github.com/cindergrid/automaton/internal/aaa"
)

// ErrRingFull is returned by Push when a ring is at capacity. Callers
// decide the overflow policy; the ring never drops entries itself.
var ErrRingFull = errors.New("ring at capacity")

// readyRing is a bounded FIFO of instance IDs awaiting fairness
// admission. Each fairness class has its own lane, both bounded by
// Params.MaxReadyRingLength.
type readyRing struct {
	capacity int
	ids      []aaa.ID
}

func newReadyRing(capacity int) *readyRing {
	return &readyRing{capacity: capacity, ids: make([]aaa.ID, 0, capacity)}
}

// Push appends an ID. Returns ErrRingFull at capacity.
func (r *readyRing) Push(id aaa.ID) error {
	if len(r.ids) >= r.capacity {
		return ErrRingFull
	}
	r.ids = append(r.ids, id)
	return nil
}

// Peek returns the head without removing it.
func (r *readyRing) Peek() (aaa.ID, bool) {
	if len(r.ids) == 0 {
		return 0, false
	}
	return r.ids[0], true
}

// Pop removes and returns the head.
func (r *readyRing) Pop() (aaa.ID, bool) {
	if len(r.ids) == 0 {
		return 0, false
	}
	id := r.ids[0]
	if len(r.ids) == 1 {
		r.ids = r.ids[:0]
	} else {
		r.ids = r.ids[1:]
	}
	return id, true
}

// Len returns the current occupancy.
func (r *readyRing) Len() int {
	return len(r.ids)
}

// Snapshot returns the ring contents in FIFO order.
func (r *readyRing) Snapshot() []aaa.ID {
	out := make([]aaa.ID, len(r.ids))
	copy(out, r.ids)
	return out
}

// Restore replaces the ring contents, truncating to capacity.
func (r *readyRing) Restore(ids []aaa.ID) {
	if len(ids) > r.capacity {
		ids = ids[:r.capacity]
	}
	r.ids = append(r.ids[:0], ids...)
}

// DeferredEntry is one deferred-ring slot: the instance and the
// earliest tick at which the drainer may promote it.
type DeferredEntry struct {
	ID            aaa.ID   `json:"id"`
	EarliestRetry aaa.Tick `json:"earliest_retry"`
}

// deferredRing is the bounded FIFO retry queue. Entries promote back
// to a ready lane strictly in FIFO order once cooled down.
type deferredRing struct {
	capacity int
	entries  []DeferredEntry
}

func newDeferredRing(capacity int) *deferredRing {
	return &deferredRing{capacity: capacity, entries: make([]DeferredEntry, 0, capacity)}
}

// Push appends an entry. Returns ErrRingFull at capacity.
func (r *deferredRing) Push(e DeferredEntry) error {
	if len(r.entries) >= r.capacity {
		return ErrRingFull
	}
	r.entries = append(r.entries, e)
	return nil
}

// Peek returns the head without removing it.
func (r *deferredRing) Peek() (DeferredEntry, bool) {
	if len(r.entries) == 0 {
		return DeferredEntry{}, false
	}
	return r.entries[0], true
}

// Pop removes and returns the head.
func (r *deferredRing) Pop() (DeferredEntry, bool) {
	if len(r.entries) == 0 {
		return DeferredEntry{}, false
	}
	e := r.entries[0]
	if len(r.entries) == 1 {
		r.entries = r.entries[:0]
	} else {
		r.entries = r.entries[1:]
	}
	return e, true
}

// Len returns the current occupancy.
func (r *deferredRing) Len() int {
	return len(r.entries)
}

// Snapshot returns the ring contents in FIFO order.
func (r *deferredRing) Snapshot() []DeferredEntry {
	out := make([]DeferredEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Restore replaces the ring contents, truncating to capacity.
func (r *deferredRing) Restore(entries []DeferredEntry) {
	if len(entries) > r.capacity {
		entries = entries[:r.capacity]
	}
	r.entries = append(r.entries[:0], entries...)
}
