// Package http provides the operational HTTP surface: Prometheus metrics and
// health endpoints. The membership workflow itself is driven by the broker and
// CLI, not by HTTP.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capsvc/selfservice/internal/metrics"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsServer serves /metrics, /healthz and /readyz.
type OpsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewOpsServer creates a new OpsServer. The metrics provider may be nil when
// metrics are disabled; the health endpoints stay available either way.
func NewOpsServer(
	host string,
	port int,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
	db Pinger,
) *OpsServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(SlogMiddleware(logger))

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), "selfservice"))
		router.GET("/metrics", gin.WrapH(metricsProvider.Handler()))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return &OpsServer{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *OpsServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the operational HTTP server.
func (s *OpsServer) Start(ctx context.Context) error {
	s.logger.Info("starting ops server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start ops server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the operational HTTP server.
func (s *OpsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ops server")
	return s.server.Shutdown(ctx)
}

// SlogMiddleware logs each request through the structured logger.
func SlogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", c.ClientIP()),
		)
	}
}
