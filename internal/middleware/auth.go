// Package middleware contains HTTP middleware functions for the Sports Club API.
// Middleware sits between the HTTP server and route handlers. It runs on every
// request that passes through it, making it the right place for cross-cutting
// concerns like authentication, role checks and request logging.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/identity"
	"github.com/trentd187/sports-club/internal/models"
)

// Keys under which middleware stores request-scoped values in c.Locals.
const (
	localIdentity = "identity"
	localUser     = "user"
)

// Auth returns a Fiber middleware handler that:
//  1. Reads the token from the "Authorization: Bearer <token>" header
//  2. Hands it to the identity verifier (every request is re-verified, nothing is cached)
//  3. Stores the verified identity in c.Locals for RequireRole and the handlers
//
// A missing header or empty token is 401. A token the verifier rejects
// (malformed, expired, bad signature) is 403.
func Auth(verifier identity.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return apperr.Unauthenticated("Unauthorized access")
		}

		id, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			return apperr.Wrap(apperr.KindForbidden, err, "Forbidden access")
		}

		c.Locals(localIdentity, id)
		return c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *fiber.Ctx) (*identity.Identity, bool) {
	id, ok := c.Locals(localIdentity).(*identity.Identity)
	return id, ok && id != nil
}

// userFrom returns the user record already loaded for this request.
func userFrom(c *fiber.Ctx) (*models.User, bool) {
	u, ok := c.Locals(localUser).(*models.User)
	return u, ok && u != nil
}

// CurrentUser returns the caller's stored user record. A record already
// loaded by a role gate is reused; otherwise it is looked up once and kept
// for the rest of the request. store.ErrNotFound is returned unchanged.
func CurrentUser(c *fiber.Ctx, users UserLookup) (*models.User, error) {
	if u, ok := userFrom(c); ok {
		return u, nil
	}
	id, ok := IdentityFrom(c)
	if !ok {
		return nil, apperr.Unauthenticated("Unauthorized access")
	}

	u, err := users.FindByEmail(c.UserContext(), id.Email)
	if err != nil {
		return nil, err
	}
	c.Locals(localUser, u)
	return u, nil
}
