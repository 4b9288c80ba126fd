package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/api"
	"github.com/bobby-s-dev/fireguard/internal/config"
	"github.com/bobby-s-dev/fireguard/internal/dashboard"
	"github.com/bobby-s-dev/fireguard/internal/observability"
	"github.com/bobby-s-dev/fireguard/internal/scheduler"
	"github.com/bobby-s-dev/fireguard/internal/services"
	"github.com/bobby-s-dev/fireguard/internal/store"
	"github.com/bobby-s-dev/fireguard/pkg/client"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger; the level is adjusted once configuration is loaded
	level := zap.NewAtomicLevel()
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = level
	logger, _ := zapConfig.Build()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting FireGuard forecast service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		logger.Warn("Invalid log level, keeping info", zap.String("level", cfg.Server.LogLevel))
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	predictor := client.NewPredictorClient(cfg.Predictor.URL, client.ClientConfig{
		Timeout:        cfg.Predictor.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}, metrics, logger)

	kv, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open forecast store", zap.Error(err))
	}
	defer closeStore()

	resolver := services.NewResolver(predictor, metrics, logger)
	board := dashboard.New(resolver, store.NewForecastRepository(kv), clock, cfg.Dashboard.ToastDuration, logger)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := board.Restore(restoreCtx); err != nil {
		logger.Warn("Could not restore last forecast", zap.Error(err))
	}
	cancelRestore()

	trendCache := services.NewTrendCache(cfg.Trends.CacheTTL, clock, logger)
	trends := services.NewTrendService(predictor, trendCache, clock, metrics, logger)
	trendScheduler := scheduler.NewScheduler(trends, trendCache, cfg.Trends.Schedule, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(board, trends, trendScheduler, logger)
	api.SetupRoutes(app, handler, logger)

	if err := trendScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trendScheduler.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.KeyValueStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := store.ConnectPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Postgres forecast store")
		return pg, func() {
			if err := pg.Close(); err != nil {
				logger.Error("Failed to close Postgres store", zap.Error(err))
			}
		}, nil
	case config.StoreMemory:
		logger.Info("Using in-memory forecast store")
		return store.NewMemoryStore(), func() {}, nil
	default:
		logger.Info("Using file forecast store", zap.String("path", cfg.Store.Path))
		return store.NewFileStore(cfg.Store.Path), func() {}, nil
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	// Default to 500 status code
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
