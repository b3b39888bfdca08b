package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/trentd187/sports-club/internal/apperr"
)

// ErrorHandler is installed as fiber.Config.ErrorHandler. Every failure the
// client sees is a {"message": "..."} body. Causes are logged, never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if e := apperr.As(err); e != nil {
		status, message = e.Status(), e.Message()
	} else if errors.As(err, &fe) {
		status, message = fe.Code, fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		zerolog.Ctx(c.UserContext()).Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}
