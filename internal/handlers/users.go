package handlers

// users.go handles /users and /members.
//
// Users are created on first sign-in by the client app (POST /users is
// called after every login, so it must be idempotent). Roles are never set
// through this file: a user becomes a member when an admin approves one of
// their bookings (see bookings.go).

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

// CreateUserRequest is the JSON body expected on POST /users.
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=200"`
	Photo string `json:"photo" validate:"omitempty,max=2048"`
}

// CreateUser handles POST /users.
// 201 {message, inserted: true, user} for a new email,
// 200 {message, inserted: false} when the email is already registered.
func CreateUser(users *store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateUserRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}

		user := &models.User{Email: req.Email, Name: req.Name, Photo: req.Photo}
		created, err := users.CreateIfAbsent(c.UserContext(), user, time.Now().UTC())
		if err != nil {
			return apperr.Internal(err, "Failed to create user")
		}
		if !created {
			return c.JSON(fiber.Map{"message": "User already exists", "inserted": false})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "User created",
			"inserted": true,
			"user":     user,
		})
	}
}

// ListUsers handles GET /users?search=. Admin only.
func ListUsers(users *store.Users) fiber.Handler {
	return searchUsers(users, "")
}

// ListMembers handles GET /members?search=. Admin only.
func ListMembers(users *store.Users) fiber.Handler {
	return searchUsers(users, models.RoleMember)
}

func searchUsers(users *store.Users, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		found, err := users.Search(c.UserContext(), c.Query("search"), role)
		if err != nil {
			return apperr.Internal(err, "Failed to fetch users")
		}
		return c.JSON(found)
	}
}

// GetUserRole handles GET /users/role/:email. Deliberately public: the client
// calls it before it has a token to decide which dashboard to show.
func GetUserRole(users *store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := emailParam(c)
		if email == "" {
			return apperr.BadRequest("Email is required")
		}

		user, err := users.FindByEmail(c.UserContext(), email)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		if err != nil {
			return apperr.Internal(err, "Failed to fetch user role")
		}
		return c.JSON(fiber.Map{"role": user.EffectiveRole()})
	}
}

// GetUser handles GET /users/:email. An unknown email yields a JSON null.
func GetUser(users *store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := emailParam(c)
		if email == "" {
			return apperr.BadRequest("Email is required")
		}

		user, err := users.FindByEmail(c.UserContext(), email)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(nil)
		}
		if err != nil {
			return apperr.Internal(err, "Failed to fetch user")
		}
		return c.JSON(user)
	}
}

// DeleteUser handles DELETE /users/:id. Admin only.
func DeleteUser(users *store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		n, err := users.Delete(c.UserContext(), id)
		if err != nil {
			return apperr.Internal(err, "Failed to delete user")
		}
		if n == 0 {
			return apperr.NotFound("User not found")
		}
		return c.JSON(fiber.Map{"deletedCount": n})
	}
}

// DeleteMember handles DELETE /members/:id. Admin only. Only users holding
// the member role are removed; any other id is reported as not found.
func DeleteMember(users *store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		n, err := users.DeleteMember(c.UserContext(), id)
		if err != nil {
			return apperr.Internal(err, "Failed to delete member")
		}
		if n == 0 {
			return apperr.NotFound("Member not found")
		}
		return c.JSON(fiber.Map{"deletedCount": n})
	}
}

// emailParam returns the :email route parameter, URL-decoded and trimmed.
func emailParam(c *fiber.Ctx) string {
	raw := c.Params("email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}
