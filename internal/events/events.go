// Package events carries domain events (a booking was approved, an
// announcement was posted, ...) from the HTTP handlers to whoever is
// listening: browsers connected to the SSE stream through the Hub, and other
// services subscribed to a Redis channel.
//
// Publishing is fire-and-forget from the handler's point of view. A failed
// publish is logged by the caller and never fails the request that caused it.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	BookingCreated      = "booking.created"
	BookingCancelled    = "booking.cancelled"
	BookingApproved     = "booking.approved"
	BookingRejected     = "booking.rejected"
	BookingDeleted      = "booking.deleted"
	AnnouncementCreated = "announcement.created"
)

// Topics a subscriber can listen on.
const (
	TopicAll   = "all"   // public events, e.g. announcements
	TopicAdmin = "admin" // every user-scoped event, for admins
)

// UserTopic is the topic carrying events scoped to one user.
func UserTopic(email string) string {
	return "user:" + strings.ToLower(strings.TrimSpace(email))
}

// Event is a single domain event. Email scopes it to one user; an empty Email
// makes it public.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Email      string    `json:"email,omitempty"`
	Data       any       `json:"data,omitempty"`
}

// New stamps a fresh id and timestamp on an event.
func New(typ, email string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Email:      email,
		Data:       data,
	}
}

// Topics lists where the event should be delivered.
func (e Event) Topics() []string {
	if e.Email == "" {
		return []string{TopicAll}
	}
	return []string{UserTopic(e.Email), TopicAdmin}
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to several publishers. Every publisher is tried;
// the errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
