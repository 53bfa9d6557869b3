package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/valuation-service/internal/domain"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

func newGuardedApp(principal *Identity, allowed ...domain.Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/guarded",
		func(c *fiber.Ctx) error {
			if principal != nil {
				c.Locals(principalKey, principal)
			}
			return c.Next()
		},
		RequireRole(allowed...),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) },
	)
	return app
}

func guardStatus(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleConsultant, domain.RoleAppraiser} {
		app := newGuardedApp(&Identity{ActorRef: "op-1", Role: role},
			domain.RoleConsultant, domain.RoleAppraiser)
		assert.Equal(t, http.StatusOK, guardStatus(t, app), "role %s", role)
	}
}

func TestRequireRoleRejectsUnlistedRole(t *testing.T) {
	app := newGuardedApp(&Identity{ActorRef: "op-1", Role: domain.Role("auditor")},
		domain.RoleConsultant, domain.RoleAppraiser)
	assert.Equal(t, http.StatusForbidden, guardStatus(t, app))
}

func TestRequireRoleRejectsMissingIdentity(t *testing.T) {
	app := newGuardedApp(nil, domain.RoleConsultant, domain.RoleAppraiser)
	assert.Equal(t, http.StatusUnauthorized, guardStatus(t, app))
}

func TestRequireRoleScopedToOneRole(t *testing.T) {
	app := newGuardedApp(&Identity{ActorRef: "op-1", Role: domain.RoleAppraiser},
		domain.RoleConsultant)
	assert.Equal(t, http.StatusForbidden, guardStatus(t, app))
}
