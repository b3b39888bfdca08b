package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrHubStopped is returned when the hub's Run loop has exited.
var ErrHubStopped = errors.New("event hub stopped")

// Subscriber is one live listener (one open SSE connection).
// The hub writes encoded events to Send and closes it when the subscriber is
// removed, either on Unsubscribe or because it fell behind.
type Subscriber struct {
	Send   chan []byte
	topics []string
}

// NewSubscriber creates a subscriber for the given topics with a Send buffer
// of the given size.
func NewSubscriber(buffer int, topics ...string) *Subscriber {
	return &Subscriber{Send: make(chan []byte, buffer), topics: topics}
}

type message struct {
	topics []string
	data   []byte
}

// Hub keeps track of subscribers grouped by topic and fans published events
// out to them. All bookkeeping happens on the Run goroutine, so the maps need
// no locking.
type Hub struct {
	topics  map[string]map[*Subscriber]bool
	members map[*Subscriber]bool

	broadcast  chan message
	register   chan *Subscriber
	unregister chan *Subscriber
	done       chan struct{}
}

// NewHub creates a hub. The broadcast channel is buffered so publishers rarely
// wait on a busy hub.
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Subscriber]bool),
		members:    make(map[*Subscriber]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled. When it
// returns every remaining subscriber's Send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for s := range h.members {
				h.remove(s)
			}
			return
		case s := <-h.register:
			h.add(s)
		case s := <-h.unregister:
			h.remove(s)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) add(s *Subscriber) {
	h.members[s] = true
	for _, t := range s.topics {
		if h.topics[t] == nil {
			h.topics[t] = make(map[*Subscriber]bool)
		}
		h.topics[t][s] = true
	}
}

func (h *Hub) remove(s *Subscriber) {
	if !h.members[s] {
		return
	}
	delete(h.members, s)
	for _, t := range s.topics {
		if subs, ok := h.topics[t]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.topics, t)
			}
		}
	}
	close(s.Send)
}

// deliver sends msg to every subscriber of any of its topics, at most once
// each. A subscriber whose buffer is full is dropped rather than blocking
// everyone else.
func (h *Hub) deliver(msg message) {
	seen := make(map[*Subscriber]bool)
	for _, t := range msg.topics {
		for s := range h.topics[t] {
			if seen[s] {
				continue
			}
			seen[s] = true
			select {
			case s.Send <- msg.data:
			default:
				h.remove(s)
			}
		}
	}
}

// Publish encodes e and queues it for delivery.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- message{topics: e.Topics(), data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers s with the hub.
func (h *Hub) Subscribe(ctx context.Context, s *Subscriber) error {
	select {
	case h.register <- s:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unsubscribe removes s. It is safe to call after the hub already dropped s,
// and after Run has returned.
func (h *Hub) Unsubscribe(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}
