package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Complaints     *handlers.ComplaintsHandler
	CallLogs       *handlers.CallLogsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle)
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Get("/by-ticket/:number", cfg.Complaints.GetByTicketNumber)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Post("/:id/status", cfg.Complaints.TransitionStatus)
	complaints.Patch("/:id/priority", cfg.Complaints.UpdatePriority)
	complaints.Post("/:id/assign", cfg.Complaints.Assign)
	complaints.Get("/:id/history", cfg.Complaints.History)
	complaints.Post("/:id/call-logs", cfg.CallLogs.Record)
	complaints.Get("/:id/call-logs", cfg.CallLogs.List)
	complaints.Get("/:id/default-status", cfg.CallLogs.DefaultStatus)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users", cfg.Users.Create)
	admin.Post("/users/:id/permissions", cfg.Users.GrantPermissions)
}
