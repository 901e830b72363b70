package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/api/http/handlers"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health              *handlers.HealthHandler
	Metrics             *handlers.MetricsHandler
	Permissions         *handlers.PermissionsHandler
	Overrides           *handlers.OverridesHandler
	AccessRequests      *handlers.AccessRequestsHandler
	PersonalPermissions *handlers.PersonalPermissionsHandler
	WebSocket           *handlers.WSHandler
	AuthMiddleware      *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Get)
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	permissions := api.Group("/permissions")
	permissions.Get("/me", cfg.Permissions.Me)
	permissions.Get("/:module", cfg.Permissions.Module)
	permissions.Get("/:module/features/:feature", cfg.Permissions.Feature)

	overrides := api.Group("/overrides")
	overrides.Get("/", cfg.Overrides.List)
	overrides.Get("/:email", cfg.Overrides.Get)
	overrides.Put("/:email/modules/:module", cfg.Overrides.SetModule)
	overrides.Delete("/:email/modules/:module", cfg.Overrides.ClearModule)

	managers := api.Group("/managers")
	managers.Get("/", cfg.Overrides.ListManagers)
	superAdmin := auth.RequireRole(domain.RoleSuperAdmin)
	managers.Post("/emails/:email", superAdmin, cfg.Overrides.AddManagerEmail)
	managers.Delete("/emails/:email", superAdmin, cfg.Overrides.RemoveManagerEmail)
	managers.Post("/roles/:role", superAdmin, cfg.Overrides.AddManagerRole)
	managers.Delete("/roles/:role", superAdmin, cfg.Overrides.RemoveManagerRole)

	requests := api.Group("/access-requests")
	requests.Post("/", cfg.AccessRequests.Create)
	requests.Get("/", cfg.AccessRequests.List)
	requests.Get("/:id", cfg.AccessRequests.Get)
	requests.Post("/:id/review", cfg.AccessRequests.Review)

	personal := api.Group("/personal-permissions")
	personal.Get("/me", cfg.PersonalPermissions.GetMine)
	personal.Put("/me", cfg.PersonalPermissions.SetMine)
	personal.Get("/:email", cfg.PersonalPermissions.GetByOwner)

	if cfg.WebSocket != nil {
		app.Get("/ws/access-requests", cfg.AuthMiddleware.HandleUpgrade, cfg.WebSocket.Upgrade, cfg.WebSocket.Stream())
	}
}
