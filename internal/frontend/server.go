package frontend

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/task-platform/internal/api/http"
	"github.com/spec-kit/task-platform/internal/api/http/handlers"
	"github.com/spec-kit/task-platform/internal/config"
	"github.com/spec-kit/task-platform/internal/observability"
)

// NewServer assembles the frontend fiber app.
func NewServer(cfg *config.Config, sessions *SessionManager, health *handlers.HealthHandler, logger *zap.Logger, metrics *observability.Metrics) (*fiber.App, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	auth := NewAuthClient(cfg.Frontend.AuthServiceURL, cfg.Frontend.CallTimeout())
	tasks := NewTaskClient(cfg.Frontend.TaskServiceURL, cfg.Frontend.CallTimeout())
	pages := NewHandlers(renderer, sessions, auth, tasks, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)

	app.Get("/login", pages.LoginPage)
	app.Post("/login", pages.Login)
	app.Get("/register", pages.RegisterPage)
	app.Post("/register", pages.Register)
	app.Post("/logout", pages.Logout)

	app.Get("/", pages.TaskList)
	app.Get("/tasks/new", pages.NewTaskPage)
	app.Post("/tasks", pages.CreateTask)
	app.Get("/tasks/:id", pages.TaskDetail)
	app.Get("/tasks/:id/edit", pages.EditTaskPage)
	app.Post("/tasks/:id", pages.UpdateTask)
	app.Post("/tasks/:id/status", pages.UpdateTaskStatus)
	app.Post("/tasks/:id/delete", pages.DeleteTask)

	return app, nil
}
