package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/task-platform/internal/api/http"
	"github.com/spec-kit/task-platform/internal/api/http/handlers"
	"github.com/spec-kit/task-platform/internal/auth"
	"github.com/spec-kit/task-platform/internal/config"
	"github.com/spec-kit/task-platform/internal/events"
	"github.com/spec-kit/task-platform/internal/observability"
	"github.com/spec-kit/task-platform/internal/persistence"
	"github.com/spec-kit/task-platform/internal/repository"
	"github.com/spec-kit/task-platform/internal/service"
	"github.com/spec-kit/task-platform/internal/token"
	"github.com/spec-kit/task-platform/internal/worker"
)

const serviceName = "tasks"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publicKey, err := token.LoadPublicKey(cfg.JWT.PublicKey, cfg.JWT.PublicKeyPath)
	if err != nil {
		logger.Fatal("failed to load public key", zap.Error(err))
	}
	verifier := token.NewVerifier(publicKey, cfg.JWT.ClockSkew())

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), "migrations/tasks", logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	taskService := service.NewTaskService(repository.NewTaskRepository(pg.PoolHandle()), dispatcher)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterTaskRoutes(app, httptransport.TaskRouteConfig{
		Health: handlers.NewHealthHandler(serviceName, cfg.App.Version, cfg.App.Env,
			map[string]handlers.Pinger{"postgres": pg}),
		Tasks:          handlers.NewTasksHandler(taskService),
		AuthMiddleware: auth.NewMiddleware(verifier),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
