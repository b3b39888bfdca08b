// Package identity verifies bearer tokens issued by the external identity
// service and turns them into an Identity the HTTP layer can trust.
//
// Two verifiers exist: FirebaseVerifier talks to Firebase Authentication and
// is what production uses; JWTVerifier checks HS256 tokens signed with a
// shared secret and exists so the API can run locally and in tests without
// Google credentials.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trentd187/sports-club/internal/config"
)

// ErrInvalidToken is returned (possibly wrapped) for any token that fails
// verification: bad signature, expired, malformed or missing an email.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified token tells us about the caller.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// FromConfig builds the verifier selected by AUTH_PROVIDER.
func FromConfig(ctx context.Context, cfg config.AuthConfig) (Verifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.AuthProviderFirebase:
		return NewFirebaseVerifier(ctx, cfg.FirebaseServiceKey)
	case config.AuthProviderJWT:
		return NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}
