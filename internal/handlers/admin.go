package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/store"
)

// AdminStats handles GET /admin/stats: document counts for the dashboard.
func AdminStats(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := s.Stats(c.UserContext())
		if err != nil {
			return apperr.Internal(err, "Failed to fetch stats")
		}
		return c.JSON(stats)
	}
}
