package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-platform/internal/api/http/handlers"
	"github.com/spec-kit/task-platform/internal/auth"
)

// AuthRouteConfig bundles dependencies for the auth service's routes.
type AuthRouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
}

// RegisterAuthRoutes wires the auth service's HTTP routes.
func RegisterAuthRoutes(app *fiber.App, cfg AuthRouteConfig) {
	registerHealthRoutes(app, cfg.Health)

	group := app.Group("/api/auth")
	group.Get("/health", cfg.Health.Live)
	group.Post("/register", cfg.Auth.Register)
	group.Post("/login", cfg.Auth.Login)
	group.Get("/verify", cfg.Auth.Verify)
}

// TaskRouteConfig bundles dependencies for the task service's routes.
type TaskRouteConfig struct {
	Health         *handlers.HealthHandler
	Tasks          *handlers.TasksHandler
	AuthMiddleware *auth.Middleware
}

// RegisterTaskRoutes wires the task service's HTTP routes. Everything under
// /api/tasks requires a verified token except the public health route,
// which must be registered before the guarded group to bypass it.
func RegisterTaskRoutes(app *fiber.App, cfg TaskRouteConfig) {
	registerHealthRoutes(app, cfg.Health)
	app.Get("/api/tasks/health", cfg.Health.Live)

	group := app.Group("/api/tasks", cfg.AuthMiddleware.Handle)
	group.Get("/", cfg.Tasks.List)
	group.Post("/", cfg.Tasks.Create)
	group.Get("/:id", cfg.Tasks.Get)
	group.Put("/:id", cfg.Tasks.Update)
	group.Patch("/:id/status", cfg.Tasks.UpdateStatus)
	group.Delete("/:id", cfg.Tasks.Delete)
}

func registerHealthRoutes(app *fiber.App, health *handlers.HealthHandler) {
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
}
