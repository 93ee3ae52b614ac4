package http

import (
	"sync"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// subscriberBuffer is the per-client channel capacity. A stalled SSE client
// loses events instead of stalling the registry.
const subscriberBuffer = 64

// Hub is the event sink behind the SSE endpoint: it fans the registry feed
// out to any number of connected clients.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan domain.RegistryEvent
	nextID int
	closed bool
}

var _ ports.EventSink = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan domain.RegistryEvent)}
}

// Publish implements ports.EventSink with non-blocking delivery.
func (h *Hub) Publish(ev domain.RegistryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe attaches a client to the feed.
func (h *Hub) Subscribe() (<-chan domain.RegistryEvent, ports.CancelFunc) {
	ch := make(chan domain.RegistryEvent, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Close disconnects every client. Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
