package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-platform/internal/token"
	apperrors "github.com/spec-kit/task-platform/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as carried by its token.
// Verification is stateless: no user store lookup happens here, so a
// downstream service only needs the public key.
type Principal struct {
	UserID   int64
	Username string
}

// Middleware validates bearer tokens before any handler or store access.
type Middleware struct {
	verifier *token.Verifier
}

// NewMiddleware constructs middleware around a token verifier.
func NewMiddleware(verifier *token.Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Handle enforces authentication for protected routes. It fails with a
// uniform 401 for missing, malformed, expired, and badly signed tokens.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	raw := token.FromAuthorizationHeader(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return apperrors.NewUnauthorized("missing or invalid authorization header")
	}

	claims, err := m.verifier.Verify(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	c.Locals(principalKey, &Principal{UserID: claims.UserID, Username: claims.Username})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller set by Handle.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
