package monitor

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub fans results out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses that result.
type Hub struct {
	log *slog.Logger

	subscriptions     map[chan Result]struct{}
	subscriptionsLock sync.RWMutex
	closed            bool

	dropped atomic.Uint64
}

// NewHub returns an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:           log,
		subscriptions: make(map[chan Result]struct{}),
	}
}

// Subscribe registers a new subscriber with the given buffer size (minimum 1).
// The returned func unsubscribes and closes the channel; it is safe to call
// more than once. On a closed hub the channel comes back already closed.
func (h *Hub) Subscribe(buffer int) (<-chan Result, func()) {
	ch := make(chan Result, max(buffer, 1))

	h.subscriptionsLock.Lock()
	defer h.subscriptionsLock.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subscriptions[ch] = struct{}{}
	return ch, func() { h.unsubscribe(ch) }
}

func (h *Hub) unsubscribe(ch chan Result) {
	h.subscriptionsLock.Lock()
	defer h.subscriptionsLock.Unlock()

	if _, ok := h.subscriptions[ch]; ok {
		delete(h.subscriptions, ch)
		close(ch)
	}
}

// Publish hands r to every subscriber that has room for it.
func (h *Hub) Publish(r Result) {
	h.subscriptionsLock.RLock()
	defer h.subscriptionsLock.RUnlock()

	for ch := range h.subscriptions {
		select {
		case ch <- r:
		default:
			n := h.dropped.Add(1)
			h.log.Debug("subscriber full, dropping result", "seq", r.Seq, "dropped", n)
		}
	}
}

// Close closes every subscriber channel. Later publishes are no-ops.
func (h *Hub) Close() {
	h.subscriptionsLock.Lock()
	defer h.subscriptionsLock.Unlock()

	for ch := range h.subscriptions {
		delete(h.subscriptions, ch)
		close(ch)
	}
	h.closed = true
}

// Len is the number of live subscribers.
func (h *Hub) Len() int {
	h.subscriptionsLock.RLock()
	defer h.subscriptionsLock.RUnlock()
	return len(h.subscriptions)
}

// Dropped is the total number of results not delivered to a full subscriber.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
