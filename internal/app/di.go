// Package app provides the composition root: every component is built here
// through explicit constructors, lazily, and handed out to the commands.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/capsvc/selfservice/internal/config"
	"github.com/capsvc/selfservice/internal/database"
	"github.com/capsvc/selfservice/internal/eventing"
	httpserver "github.com/capsvc/selfservice/internal/http"
	"github.com/capsvc/selfservice/internal/kafka"
	membershipUsecase "github.com/capsvc/selfservice/internal/membership/usecase"
	"github.com/capsvc/selfservice/internal/metrics"
	outboxUsecase "github.com/capsvc/selfservice/internal/outbox/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. Components are created on first access.
type Container struct {
	config *config.Config

	logger    *slog.Logger
	db        *sql.DB
	txManager database.TxManager

	applicationRepo membershipUsecase.ApplicationRepository
	membershipRepo  membershipUsecase.MembershipRepository
	capabilityRepo  membershipUsecase.CapabilityRepository
	outboxRepo      outboxUsecase.OutboxEventRepository

	transactor         *eventing.Transactor
	applicationUseCase membershipUsecase.ApplicationUseCase
	registry           *eventing.Registry
	sweeper            *membershipUsecase.Sweeper

	producer      *kafka.Producer
	consumer      *kafka.Consumer
	outboxUseCase outboxUsecase.UseCase

	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	opsServer       *httpserver.OpsServer

	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	txManagerInit          sync.Once
	applicationRepoInit    sync.Once
	membershipRepoInit     sync.Once
	capabilityRepoInit     sync.Once
	outboxRepoInit         sync.Once
	transactorInit         sync.Once
	applicationUseCaseInit sync.Once
	registryInit           sync.Once
	sweeperInit            sync.Once
	producerInit           sync.Once
	consumerInit           sync.Once
	outboxUseCaseInit      sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	opsServerInit          sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op implementation
// is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// OpsServer returns the operational HTTP server (metrics + health endpoints).
func (c *Container) OpsServer() (*httpserver.OpsServer, error) {
	c.opsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["opsServer"] = err
			return
		}

		db, err := c.DB()
		if err != nil {
			c.initErrors["opsServer"] = err
			return
		}

		c.opsServer = httpserver.NewOpsServer(
			c.config.MetricsHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
			db,
		)
	})
	if err, exists := c.initErrors["opsServer"]; exists {
		return nil, err
	}
	return c.opsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.opsServer != nil {
		if err := c.opsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("ops server shutdown: %w", err))
		}
	}

	if c.consumer != nil {
		if err := c.consumer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kafka consumer close: %w", err))
		}
	}

	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kafka producer close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates a structured JSON logger based on the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
