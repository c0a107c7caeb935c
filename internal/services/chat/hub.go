// Package chat implements operator presence and live-chat notifications.
//
// The hub is a process-local change feed with two logical topics: operator
// presence changes and new-chat notifications. Delivery is at-least-once and
// ordered per topic; consumers apply repeated states idempotently.
package chat

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Topic identifies one logical event stream on the hub.
type Topic string

const (
	// TopicPresence carries operator online/offline changes.
	TopicPresence Topic = "presence"
	// TopicChat carries new-chat notifications for operator consoles.
	TopicChat Topic = "chat"
)

// Frame is one event delivered to hub subscribers.
type Frame struct {
	Topic    Topic           `json:"topic"`
	Type     string          `json:"type"`
	Sequence int64           `json:"sequence"`
	Payload  json.RawMessage `json:"payload"`
}

// Frame types carried on the hub.
const (
	FrameTypePresence         = "presence"
	FrameTypeChatNotification = "chat_notification"
)

// subscriptionBuffer bounds per-subscriber backlog. A subscriber that falls
// this far behind is disconnected so the hub never stalls; the transport is
// expected to reconnect.
const subscriptionBuffer = 64

// Subscription is one live attachment to the hub.
type Subscription struct {
	topics map[Topic]struct{}
	events chan Frame
	closed bool
}

// Events returns the ordered event stream for this subscription. The channel
// closes after Unsubscribe or when the subscriber falls too far behind.
func (s *Subscription) Events() <-chan Frame {
	return s.events
}

// Hub fans out topic events to subscribers.
type Hub struct {
	mu          sync.Mutex
	sequences   map[Topic]int64
	subscribers map[*Subscription]struct{}
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{
		sequences:   make(map[Topic]int64),
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscribe attaches a new subscriber to the given topics.
func (h *Hub) Subscribe(topics ...Topic) *Subscription {
	selected := make(map[Topic]struct{}, len(topics))
	for _, topic := range topics {
		selected[topic] = struct{}{}
	}
	sub := &Subscription{
		topics: selected,
		events: make(chan Frame, subscriptionBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe detaches a subscriber. Once it returns no further events are
// published to the subscription; events already buffered are still drained
// from the closed channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub)
}

// Publish marshals payload and delivers it to every subscriber of topic in
// per-topic commit order.
func (h *Hub) Publish(topic Topic, frameType string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", frameType, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sequences[topic]++
	frame := Frame{
		Topic:    topic,
		Type:     frameType,
		Sequence: h.sequences[topic],
		Payload:  encoded,
	}

	for sub := range h.subscribers {
		if _, ok := sub.topics[topic]; !ok {
			continue
		}
		select {
		case sub.events <- frame:
		default:
			h.dropLocked(sub)
		}
	}
	return nil
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) dropLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(h.subscribers, sub)
	close(sub.events)
}
