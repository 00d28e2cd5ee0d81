package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 10

// Event represents an SSE event to be sent to subscribers
type Event struct {
	ID    string
	Event string
	Data  interface{}
}

// WriteTo writes the event as a single SSE frame.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return 0, fmt.Errorf("marshal sse data: %w", err)
	}

	var n int
	if e.ID != "" {
		n, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Event, payload)
	} else {
		n, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Event, payload)
	}
	return int64(n), err
}

type subscriber struct {
	userID string
	ch     chan Event
}

// Hub manages SSE subscribers and event broadcasting.
// A user may hold several connections; each gets its own channel.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]subscriber
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]subscriber),
	}
}

// Subscribe registers a new connection for userID and returns its channel and cleanup function
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	h.subscribers[id] = subscriber{userID: userID, ch: ch}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers, id)
			close(ch)
		})
	}

	return ch, cleanup
}

// Publish sends an event to every connection of userID
func (h *Hub) Publish(userID string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subscribers {
		if sub.userID == userID && deliver(sub.ch, event) {
			delivered++
		}
	}
	return delivered
}

// Broadcast sends an event to every connection.
func (h *Hub) Broadcast(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subscribers {
		if deliver(sub.ch, event) {
			delivered++
		}
	}
	return delivered
}

// deliver never blocks; a full subscriber misses the event.
func deliver(ch chan Event, event Event) bool {
	select {
	case ch <- event:
		return true
	default:
		return false
	}
}

// SubscriberCount returns the number of active connections for a user
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, sub := range h.subscribers {
		if sub.userID == userID {
			count++
		}
	}
	return count
}

// TotalSubscribers returns the number of active connections across all users
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
