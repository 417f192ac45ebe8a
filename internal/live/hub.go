// Package live fans ingested events out to in-process observers, each of
// which typically backs one SSE connection.
package live

import (
	"sync"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

const subscriberBuffer = 16

// Subscription is one observer's feed. Events arrives on C; Close detaches
// the observer from the hub.
type Subscription struct {
	C chan domain.Envelope

	hub  *Hub
	once sync.Once
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub is an in-process broadcast switch. Publish never blocks: a subscriber
// whose buffer is full misses that event while the rest keep receiving.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new observer. The returned subscription must be
// closed when the observer goes away or the hub will hold it forever.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		C:   make(chan domain.Envelope, subscriberBuffer),
		hub: h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers e to every current subscriber, best-effort.
func (h *Hub) Publish(e domain.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.C <- e:
		default:
			// Subscriber is not keeping up; drop rather than stall ingestion.
		}
	}
}

// Shutdown detaches every subscriber and closes their channels. Subsequent
// Publish calls are no-ops and subsequent Subscribe calls return an already
// closed subscription.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.C)
		delete(h.subs, sub)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.C)
}

// SubscriberCount reports how many observers are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
