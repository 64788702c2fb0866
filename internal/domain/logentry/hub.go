package logentry

import (
	"sync"
	"sync/atomic"
)

// DefaultMailbox is the per-subscriber buffer used when the requested
// size is not positive.
const DefaultMailbox = 100

// Hub fans newly stored entries out to live subscribers. Each
// subscriber owns a bounded mailbox; a full mailbox drops the entry for
// that subscriber only. Publish never blocks, so a stalled viewer can
// not slow ingestion or its peers. The subscriber-set lock is disjoint
// from RingStore's lock.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64

	published atomic.Int64
	dropped   atomic.Int64
}

// Subscriber is one live viewer's mailbox handle.
type Subscriber struct {
	id      uint64
	ch      chan Entry
	dropped atomic.Int64
}

// C yields entries published after the subscription was registered.
// The channel is closed on Unsubscribe.
func (s *Subscriber) C() <-chan Entry {
	return s.ch
}

// Dropped reports how many entries this subscriber lost to a full
// mailbox.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

// HubStats is a point-in-time view of fan-out activity.
type HubStats struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscriber)}
}

// Subscribe registers a mailbox of the given capacity and returns its
// handle. Entries published before registration are not delivered.
func (h *Hub) Subscribe(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultMailbox
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscriber{id: h.nextID, ch: make(chan Entry, buffer)}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscriber and closes its mailbox. Safe to
// call concurrently with Publish: the write lock waits out in-flight
// publishes before the channel is closed. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
}

// Publish delivers the entry to every registered mailbox without
// blocking. Subscribers whose mailboxes are full miss this entry.
func (h *Hub) Publish(e Entry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.published.Add(1)
	for _, sub := range h.subs {
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
			h.dropped.Add(1)
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stats snapshots fan-out counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Subscribers: len(h.subs),
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}
