package usecase

import (
	"context"
	"log/slog"
	"time"
)

// SweeperConfig holds expiry sweeper configuration.
type SweeperConfig struct {
	Interval time.Duration
}

// Sweeper periodically cancels pending applications past their deadline.
type Sweeper struct {
	config  SweeperConfig
	useCase ApplicationUseCase
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper creates a new Sweeper.
func NewSweeper(config SweeperConfig, useCase ApplicationUseCase, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		config:  config,
		useCase: useCase,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("starting application expiry sweeper",
		slog.Duration("interval", s.config.Interval),
	)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping application expiry sweeper")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.useCase.CancelExpiredApplications(ctx, s.now()); err != nil {
				s.logger.Error("expiry sweep failed", slog.Any("error", err))
			}
		}
	}
}
