package gateway

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/task-platform/internal/api/http"
	"github.com/spec-kit/task-platform/internal/config"
	"github.com/spec-kit/task-platform/internal/observability"
)

// NewServer assembles the gateway fiber app: its own health endpoint, then
// a catch-all that proxies everything else by longest prefix.
func NewServer(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	table := NewTable([]Route{
		{Prefix: "/api/auth", Upstream: cfg.Gateway.AuthServiceURL},
		{Prefix: "/api/tasks", Upstream: cfg.Gateway.TaskServiceURL},
		{Prefix: "/", Upstream: cfg.Gateway.FrontendServiceURL},
	})
	proxy := NewProxy(table, cfg.Gateway.ProxyTimeout(), logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	})
	app.Use(proxy.Handle)

	return app
}
