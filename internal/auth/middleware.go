package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/domain"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Identity domain.Identity
}

// AuthMiddleware validates bearer tokens and stores the caller identity.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}
	return m.authenticate(c, parts[1])
}

// HandleUpgrade authenticates websocket upgrades. Browsers cannot set headers
// on the handshake, so the token may also arrive as ?access_token=.
func (m *AuthMiddleware) HandleUpgrade(c *fiber.Ctx) error {
	if c.Get("Authorization") != "" {
		return m.Handle(c)
	}
	token := c.Query("access_token")
	if token == "" {
		return apperrors.NewUnauthorized("missing access token")
	}
	return m.authenticate(c, token)
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx, token string) error {
	claims, err := m.tokens.ParseToken(strings.TrimSpace(token))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	identity, err := claims.Identity()
	if err != nil {
		return apperrors.NewUnauthorized("token does not carry a staff identity")
	}
	c.Locals(principalKey, &Principal{Identity: identity})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// IdentityFromContext returns the caller identity or UNAUTHORIZED.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal == nil {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Identity, nil
}
