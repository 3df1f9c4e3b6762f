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
	"github.com/spec-kit/task-platform/internal/config"
	"github.com/spec-kit/task-platform/internal/observability"
	"github.com/spec-kit/task-platform/internal/persistence"
	"github.com/spec-kit/task-platform/internal/repository"
	"github.com/spec-kit/task-platform/internal/service"
	"github.com/spec-kit/task-platform/internal/token"
)

const serviceName = "auth"

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

	privateKey, err := token.LoadPrivateKey(cfg.JWT.PrivateKey, cfg.JWT.PrivateKeyPath)
	if err != nil {
		logger.Fatal("failed to load private key", zap.Error(err))
	}
	issuer := token.NewIssuer(privateKey, cfg.JWT.Expiry())
	verifier := token.NewVerifier(&privateKey.PublicKey, cfg.JWT.ClockSkew())

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), "migrations/auth", logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   repository.NewUserRepository(pg.PoolHandle()),
		Issuer:     issuer,
		Verifier:   verifier,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterAuthRoutes(app, httptransport.AuthRouteConfig{
		Health: handlers.NewHealthHandler(serviceName, cfg.App.Version, cfg.App.Env,
			map[string]handlers.Pinger{"postgres": pg}),
		Auth: handlers.NewAuthHandler(authService),
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
