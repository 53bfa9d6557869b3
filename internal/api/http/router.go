package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/valuation-service/internal/api/http/handlers"
	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/identity"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Cases     *handlers.CasesHandler
	Operators *handlers.OperatorsHandler
	Identity  *identity.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Intake is unauthenticated: requests arrive from the public site.
	app.Post("/cases", cfg.Cases.CreateCase)

	workflowRoles := identity.RequireRole(domain.RoleConsultant, domain.RoleAppraiser)

	protected := app.Group("/cases", cfg.Identity.Handle, workflowRoles)
	protected.Get("/", cfg.Cases.ListCases)
	protected.Get("/:id", cfg.Cases.GetCase)
	protected.Post("/:id/claim", cfg.Cases.ClaimCase)
	protected.Post("/:id/transitions/:action", cfg.Cases.TransitionCase)

	operators := app.Group("/operators", cfg.Identity.Handle, workflowRoles)
	operators.Get("/", cfg.Operators.List)
}
