// Package realtime delivers per-user events to connected clients. Boundary
// code (SSE/WebSocket handlers) subscribes; the notification dispatcher publishes.
package realtime

import (
	"context"
	"sync"
)

// Event kinds emitted by the notification dispatcher.
const (
	KindNewNotification = "new-notification"
	KindUnreadCount     = "unread-count"
)

// Event is one message on a user's private channel.
type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Publisher is the write side of the hub, the only part the dispatcher needs.
type Publisher interface {
	// Publish delivers the event to every subscriber of userID. Best-effort:
	// slow subscribers are skipped, absent subscribers are not an error.
	Publish(userID string, evt Event)
}

// Hub fan-outs events to all active subscribers of a user address.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan Event // userID -> subscriber id -> channel
	next int
}

// NewHub initialises an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a subscriber for userID and returns a channel which will
// receive events. The channel is closed when the provided context ends.
func (h *Hub) Subscribe(ctx context.Context, userID string) <-chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	h.subs[userID][id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[userID], id)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers of userID.
func (h *Hub) Publish(userID string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[userID] {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
