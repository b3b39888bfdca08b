// Package handlers contains the HTTP route handler functions for the Sports Club API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling the store, and writing a response.
//
// Every exported function follows the "handler factory" pattern: it takes its
// dependencies (a store collection, the event notifier, ...) and returns a
// fiber.Handler. This lets us inject them without global variables.
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Pinger is anything the health check should ping (the database, Redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Root handles GET /, the plain-text liveness banner.
func Root(c *fiber.Ctx) error {
	return c.SendString("Welcome to Sports Club Server")
}

// HealthCheck handles GET /health.
// With every dependency reachable it returns {"status": "ok"}. When a ping
// fails it returns 503 so load balancers stop routing to this instance.
// No authentication.
func HealthCheck(deps ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for _, d := range deps {
			if d == nil {
				continue
			}
			if err := d.Ping(ctx); err != nil {
				zerolog.Ctx(c.UserContext()).Warn().Err(err).Msg("health.check_failed")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		// fiber.Map is just a shorthand for map[string]interface{}.
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
