package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/task-platform/internal/api/http/handlers"
	"github.com/spec-kit/task-platform/internal/config"
	"github.com/spec-kit/task-platform/internal/frontend"
	"github.com/spec-kit/task-platform/internal/observability"
	"github.com/spec-kit/task-platform/internal/persistence"
)

const serviceName = "frontend"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Frontend.SessionHashKey == "" {
		log.Fatal("SESSION_HASH_KEY is required")
	}

	logger, err := observability.NewLogger(cfg.Logger, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sessions := frontend.NewSessionManager(
		frontend.NewRedisSessionStore(redis.Client),
		[]byte(cfg.Frontend.SessionHashKey),
		cfg.Frontend.SessionTTL(),
	)

	health := handlers.NewHealthHandler(serviceName, cfg.App.Version, cfg.App.Env,
		map[string]handlers.Pinger{"redis": redis})

	metrics := observability.NewMetrics()
	app, err := frontend.NewServer(cfg, sessions, health, logger, metrics)
	if err != nil {
		logger.Fatal("assembling server", zap.Error(err))
	}

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
