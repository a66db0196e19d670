package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/capsvc/selfservice/internal/app"
	"github.com/capsvc/selfservice/internal/config"
)

// RunWorker starts the long-running worker process: the operational HTTP
// server, the outbox relay, the event consumer, and the expiry sweeper.
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal error. On
// shutdown signal, gracefully stops all components within DBConnMaxLifetime
// timeout.
func RunWorker(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	opsServer, err := container.OpsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize ops server: %w", err)
	}

	outboxRelay, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}

	consumer, err := container.Consumer()
	if err != nil {
		return fmt.Errorf("failed to initialize event consumer: %w", err)
	}

	sweeper, err := container.Sweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize expiry sweeper: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start components in goroutines
	workerErr := make(chan error, 4)
	go func() {
		if err := opsServer.Start(ctx); err != nil {
			workerErr <- fmt.Errorf("ops server error: %w", err)
		}
	}()
	go func() {
		if err := outboxRelay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			workerErr <- fmt.Errorf("outbox relay error: %w", err)
		}
	}()
	go func() {
		consumer.Start(ctx)
	}()
	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			workerErr <- fmt.Errorf("expiry sweeper error: %w", err)
		}
	}()

	// Wait for shutdown signal or component error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-workerErr:
		logger.Error("worker error, initiating shutdown", slog.Any("error", err))
		runErr = err
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer shutdownCancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("ops server shutdown: %w", err))
	}

	return runErr
}
