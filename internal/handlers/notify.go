package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/metrics"
)

const publishTimeout = 2 * time.Second

// Notifier publishes domain events for handlers and counts booking
// transitions. A nil Notifier (or nil fields) does nothing, which keeps
// handler tests free of wiring.
type Notifier struct {
	Publisher events.Publisher
	Metrics   *metrics.Metrics
}

// booking records a booking transition and publishes the matching event.
func (n *Notifier) booking(c *fiber.Ctx, transition, eventType, email string, data any) {
	if n == nil {
		return
	}
	n.Metrics.BookingTransition(transition)
	n.publish(c, events.New(eventType, email, data))
}

// publish hands e to the publisher. Failures are logged and counted but never
// surface to the client: the write that triggered the event already succeeded.
func (n *Notifier) publish(c *fiber.Ctx, e events.Event) {
	if n == nil || n.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), publishTimeout)
	defer cancel()
	err := n.Publisher.Publish(ctx, e)
	n.Metrics.EventPublished(err == nil)
	if err != nil {
		zerolog.Ctx(c.UserContext()).Warn().Err(err).
			Str("event_type", e.Type).
			Str("event_id", e.ID).
			Msg("event.publish_failed")
	}
}
