package handlers

// stream.go serves GET /events, a Server-Sent Events feed of domain events.
// A caller receives public events (announcements), events about their own
// bookings, and, if they are an admin, events about everyone's bookings.

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/middleware"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

const (
	streamBuffer    = 32
	streamKeepAlive = 25 * time.Second
)

// EventStream handles GET /events. Verified callers only.
func EventStream(hub *events.Hub, users middleware.UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			return apperr.Unauthenticated("Unauthorized access")
		}

		// A caller without a user row still gets public and own events.
		user, err := middleware.CurrentUser(c, users)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err, "Failed to verify role")
		}

		sub := events.NewSubscriber(streamBuffer, streamTopics(id.Email, user)...)
		if err := hub.Subscribe(c.UserContext(), sub); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Event stream unavailable")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer hub.Unsubscribe(sub)
			writeStream(w, sub.Send, streamKeepAlive)
		})
		return nil
	}
}

// streamTopics lists the topics a caller may follow. user is nil when the
// caller has no stored record yet.
func streamTopics(email string, user *models.User) []string {
	topics := []string{events.TopicAll, events.UserTopic(email)}
	if user != nil && user.EffectiveRole() == models.RoleAdmin {
		topics = append(topics, events.TopicAdmin)
	}
	return topics
}

// writeStream copies encoded events to w in SSE framing until the channel is
// closed or the client goes away (a failed flush). A comment line is sent
// every keepAlive so proxies keep the connection open.
func writeStream(w *bufio.Writer, in <-chan []byte, keepAlive time.Duration) {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	fmt.Fprint(w, ": connected\n\n")
	if w.Flush() != nil {
		return
	}
	for {
		select {
		case data, ok := <-in:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if w.Flush() != nil {
			return
		}
	}
}
