// Package broadcast fans simulation snapshots out to any number of
// viewers. A slow viewer never blocks the simulation: each subscriber has
// a small buffer and loses its oldest snapshots first.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/vovakirdan/dyngrid/internal/output"
)

// DefaultBuffer is the subscriber buffer used when none is given.
const DefaultBuffer = 8

// Subscriber receives snapshots from a Hub. Snapshots are shared between
// subscribers and must be treated as read-only.
type Subscriber struct {
	id       uint64
	events   chan output.Snapshot
	done     chan struct{}
	doneOnce sync.Once
	dropped  atomic.Int64
}

func newSubscriber(id uint64, buffer int) *Subscriber {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Subscriber{
		id:     id,
		events: make(chan output.Snapshot, buffer),
		done:   make(chan struct{}),
	}
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() uint64 { return s.id }

// Send delivers a snapshot without blocking.
// If the buffer is full, the oldest snapshot is dropped.
func (s *Subscriber) Send(snap output.Snapshot) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- snap:
	default:
		select {
		case <-s.events:
			s.dropped.Add(1)
		default:
		}
		// Best effort; a concurrent Send may have refilled the slot.
		select {
		case s.events <- snap:
		default:
			s.dropped.Add(1)
		}
	}
}

// Events returns the channel to receive snapshots from.
func (s *Subscriber) Events() <-chan output.Snapshot { return s.events }

// Done returns a channel that closes when the subscriber is closed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Close marks the subscriber as done.
// Safe to call multiple times.
func (s *Subscriber) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Dropped returns how many snapshots were lost to a full buffer.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// Hub is an output.Sink that forwards every snapshot to its subscribers.
// Thread-safe for concurrent access.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64
	buffer int
	last   *output.Snapshot
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer snapshots.
func NewHub(buffer int) *Hub {
	return &Hub{
		subs:   make(map[uint64]*Subscriber),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. It immediately receives the most
// recent snapshot, if any, so late viewers don't start blank. Subscribing
// to a closed hub returns an already closed subscriber.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := newSubscriber(h.nextID, h.buffer)
	if h.last != nil {
		s.Send(*h.last)
	}
	if h.closed {
		s.Close()
		return s
	}
	h.subs[s.id] = s
	return s
}

// Unsubscribe removes and closes a subscriber.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.id)
	h.mu.Unlock()
	s.Close()
}

// Snapshot implements output.Sink. It never blocks and never fails.
func (h *Hub) Snapshot(snap output.Snapshot) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.last = &snap
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Send(snap)
	}
	return nil
}

// Last returns the most recent snapshot.
func (h *Hub) Last() (output.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return output.Snapshot{}, false
	}
	return *h.last, true
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber. Later snapshots are discarded.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*Subscriber)
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

var _ output.Sink = (*Hub)(nil)
