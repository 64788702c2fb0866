package logentry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is used when the configured capacity is not positive.
const DefaultCapacity = 1000

// RingStore is a fixed-capacity ordered buffer of entries. When full,
// the oldest entry is overwritten. A single mutex covers the ring
// contents and the sequence counter: eviction, insertion and counter
// increment must be atomic as a unit.
type RingStore struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	start    int
	count    int
	nextSeq  int64
}

// NewRingStore builds a store holding at most capacity entries.
func NewRingStore(capacity int) *RingStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingStore{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		nextSeq:  1,
	}
}

// Append assigns the next sequence number, fills server-side defaults
// for a missing id or timestamp, and inserts the entry, evicting the
// oldest one past capacity. It never fails; content validation happens
// upstream.
func (r *RingStore) Append(e Entry) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.Sequence = r.nextSeq
	r.nextSeq++
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if r.count < r.capacity {
		r.entries = append(r.entries, e)
		r.count++
	} else {
		r.entries[r.start] = e
		r.start = (r.start + 1) % r.capacity
	}
	return e
}

// Snapshot returns all retained entries oldest to newest as a copy.
// Taken under the lock, so it never observes a half-applied append.
func (r *RingStore) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, r.count)
	if r.count < r.capacity {
		out = append(out, r.entries...)
		return out
	}
	out = append(out, r.entries[r.start:]...)
	out = append(out, r.entries[:r.start]...)
	return out
}

// Clear empties the store. The sequence counter is deliberately left
// alone so numbers are never reused across the store's lifetime.
func (r *RingStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
	r.start = 0
	r.count = 0
}

// Len reports the current number of retained entries.
func (r *RingStore) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Capacity reports the fixed maximum number of retained entries.
func (r *RingStore) Capacity() int {
	return r.capacity
}

// LastSequence returns the most recently issued sequence number, or 0
// if nothing was ever appended.
func (r *RingStore) LastSequence() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextSeq - 1
}
