package middleware

// roles.go: role-based access control.
// The club has three roles: user, member, admin. A user's role lives in the
// users table (not in the token), so the gate looks the caller up on every request.

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

// UserLookup finds a user by email. *store.Users satisfies it.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequireRole returns a middleware handler that allows only callers whose
// stored role is one of roles:
//
//	api.Get("/admin/stats", middleware.RequireRole(users, models.RoleAdmin), handlers.AdminStats(s))
//
// RequireRole must be used AFTER Auth, which supplies the verified email.
// Outcomes: no identity is 401; a failed lookup is 500; an unknown user or a
// role outside the set is 403. On success the user record is stored for the
// handler (see CurrentUser).
//
// An unknown role is a wiring mistake, so RequireRole panics at startup
// instead of silently locking the route.
func RequireRole(users UserLookup, roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			panic(fmt.Sprintf("middleware: RequireRole given unknown role %q", r))
		}
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFrom(c); !ok {
			return apperr.Unauthenticated("Unauthorized access")
		}

		user, err := CurrentUser(c, users)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Forbidden("Forbidden access")
		}
		if err != nil {
			return apperr.Internal(err, "Failed to verify role")
		}

		if _, ok := allowed[user.EffectiveRole()]; !ok {
			return apperr.Forbidden("Forbidden access")
		}
		return c.Next()
	}
}
