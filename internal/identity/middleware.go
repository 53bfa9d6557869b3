package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/valuation-service/internal/domain"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

const principalKey = "identity_principal"

// Middleware validates bearer tokens and resolves the acting operator.
type Middleware struct {
	verifier *TokenVerifier
	provider Provider
}

// NewMiddleware constructs middleware.
func NewMiddleware(verifier *TokenVerifier, provider Provider) *Middleware {
	return &Middleware{verifier: verifier, provider: provider}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.verifier.Verify(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	identity, err := m.provider.Resolve(c.Context(), claims.ActorRef)
	if err != nil {
		return err
	}

	c.Locals(principalKey, identity)
	return c.Next()
}

// FromContext retrieves the resolved identity.
func FromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := FromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
