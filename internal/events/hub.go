package events

import "sync"

// subscriberBuffer bounds how far a slow SSE client may lag before it starts
// losing events. The desktop frontend refetches goal and queue state on
// reconnect, so a dropped event costs a refresh, not correctness.
const subscriberBuffer = 16

// Hub fans acquisition events (job lifecycle, candidate arrivals, goal status
// flips) out to every connected SSE client.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

// Publish delivers evt to every subscriber that can take it. A stalled client
// drops events rather than stalling the drain loop publishing them.
func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}
