// Package bus is the in-process signal hub the engine publishes state
// changes on. The presentation layer subscribes by topic prefix instead of
// polling collection state. Delivery is non-blocking: a subscriber that
// falls behind misses events rather than stalling the engine.
package bus

import (
	"strings"
	"sync"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

const defaultBufferSize = 64

// Engine topics.
const (
	TopicContentChanged   = "content.changed"
	TopicContentError     = "content.error"
	TopicSpacesChanged    = "spaces.changed"
	TopicSpaceSelected    = "spaces.selected"
	TopicSelectionCleared = "spaces.selection_cleared"
)

// Event is a message published on the hub.
type Event struct {
	Topic   string
	Payload any
}

// ContentChangedEvent is published when a collection's entities or cached
// items change, including the optimistic phase of a reorder.
type ContentChangedEvent struct {
	Kind    types.ContentKind
	SpaceID string
}

// ContentErrorEvent is published when a collection records a classified
// error for passive UI binding.
type ContentErrorEvent struct {
	Kind      types.ContentKind
	Operation string
}

// SpaceSelectedEvent is published when the current space changes.
type SpaceSelectedEvent struct {
	SpaceID string
}

// Subscription is an active topic-prefix subscription.
type Subscription struct {
	id     int
	prefix string
	ch     chan Event
}

// Ch returns the channel events are delivered on.
func (s *Subscription) Ch() <-chan Event { return s.ch }

// Hub fans events out to prefix-matched subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[int]*Subscription)}
}

// Subscribe registers for events whose topic starts with prefix. An empty
// prefix matches every topic.
func (h *Hub) Subscribe(prefix string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		prefix: prefix,
		ch:     make(chan Event, defaultBufferSize),
	}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// with nil or an already-removed subscription.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; ok {
		delete(h.subs, sub.id)
		close(sub.ch)
	}
}

// Publish delivers an event to all matching subscribers without blocking.
// A full subscriber buffer drops the event for that subscriber only.
func (h *Hub) Publish(topic string, payload any) {
	event := Event{Topic: topic, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.prefix == "" || strings.HasPrefix(topic, sub.prefix) {
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}
