// Package feed fans newly appended messages out to spectators.
package feed

import (
	"log/slog"
	"sync"

	"github.com/colosseum-live/arena/internal/core"
)

const subscriberBuffer = 64

// Hub broadcasts every appended message to the subscribers of its debate.
// It is read-only with respect to the message store.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]map[int]chan core.Message
	nextID int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]map[int]chan core.Message),
	}
}

// Subscribe registers a spectator for a debate. The returned cancel function
// removes the subscription and closes the channel.
func (h *Hub) Subscribe(debateID uint64) (<-chan core.Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan core.Message, subscriberBuffer)
	if h.subs[debateID] == nil {
		h.subs[debateID] = make(map[int]chan core.Message)
	}
	id := h.nextID
	h.nextID++
	h.subs[debateID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[debateID][id]; ok {
			delete(h.subs[debateID], id)
			if len(h.subs[debateID]) == 0 {
				delete(h.subs, debateID)
			}
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers a message to every subscriber of the debate. A subscriber
// whose buffer is full misses the message; the publisher never blocks.
func (h *Hub) Publish(debateID uint64, msg core.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs[debateID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("Dropping message for slow spectator", "debate_id", debateID, "subscriber", id)
		}
	}
}

// SubscriberCount returns the number of spectators for a debate.
func (h *Hub) SubscriberCount(debateID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[debateID])
}
