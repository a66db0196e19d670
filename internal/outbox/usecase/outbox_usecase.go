// Package usecase implements the outbox relay: the background loop that drains
// pending outbox rows and publishes them to the broker.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/capsvc/selfservice/internal/database"
	"github.com/capsvc/selfservice/internal/outbox/domain"
)

// Config holds outbox relay configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// PublishesPerSec throttles broker publishes; zero disables throttling.
	PublishesPerSec float64
}

// OutboxEventRepository defines outbox event repository operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// Publisher publishes a serialized event payload to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// UseCase defines the interface for the outbox relay.
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// OutboxUseCase drains pending outbox rows and publishes them. Delivery is
// at-least-once: a publish can succeed and the status update still roll back,
// in which case the event is published again on the next pass. Consumers
// deduplicate by being idempotent.
type OutboxUseCase struct {
	config     Config
	txManager  database.TxManager
	outboxRepo OutboxEventRepository
	publisher  Publisher
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	publisher Publisher,
	logger *slog.Logger,
) *OutboxUseCase {
	var limiter *rate.Limiter
	if config.PublishesPerSec > 0 {
		burst := int(config.PublishesPerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.PublishesPerSec), burst)
	}

	return &OutboxUseCase{
		config:     config,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		publisher:  publisher,
		limiter:    limiter,
		logger:     logger,
	}
}

// Start runs the relay loop until the context is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox relay",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox relay")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents drains one batch of pending events inside a transaction. The
// SKIP LOCKED select keeps concurrent relay instances off each other's rows.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		uc.logger.Info("publishing outbox events", slog.Int("count", len(events)))

		for _, event := range events {
			if err := uc.publishEvent(ctx, event); err != nil {
				uc.logger.Error("failed to publish outbox event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Any("error", err),
				)

				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg

				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
					uc.logger.Error("outbox event exhausted retries",
						slog.String("event_id", event.ID.String()),
						slog.Int("retries", event.Retries),
					)
				}

				if err := uc.outboxRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

func (uc *OutboxUseCase) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	if uc.limiter != nil {
		if err := uc.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return uc.publisher.Publish(ctx, event.Topic, event.PartitionKey, []byte(event.Payload))
}
