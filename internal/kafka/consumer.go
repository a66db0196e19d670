package kafka

import (
	"context"
	"log/slog"
	"time"

	segmentio "github.com/segmentio/kafka-go"

	"github.com/capsvc/selfservice/internal/eventing"
)

// Reader is the subset of the segmentio kafka.Reader API the consumer uses,
// extracted so tests can inject a fake.
type Reader interface {
	FetchMessage(ctx context.Context) (segmentio.Message, error)
	CommitMessages(ctx context.Context, msgs ...segmentio.Message) error
	Close() error
}

// Consumer fetches messages from the membership topic and dispatches them to
// the handlers registered for their event type. Offsets are committed only
// after the handler succeeds, so a failed handler run leads to redelivery.
type Consumer struct {
	reader         Reader
	registry       *eventing.Registry
	logger         *slog.Logger
	handlerTimeout time.Duration
}

// NewConsumer creates a Consumer in the given consumer group.
func NewConsumer(brokers []string, topic, groupID string, registry *eventing.Registry, logger *slog.Logger) *Consumer {
	reader := segmentio.NewReader(segmentio.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, registry, logger)
}

// NewConsumerWithReader creates a Consumer with an injected reader.
func NewConsumerWithReader(reader Reader, registry *eventing.Registry, logger *slog.Logger) *Consumer {
	return newConsumer(reader, registry, logger)
}

func newConsumer(reader Reader, registry *eventing.Registry, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:         reader,
		registry:       registry,
		logger:         logger,
		handlerTimeout: 30 * time.Second,
	}
}

// Start consumes messages until the context is cancelled.
//
// Poison messages (unparseable envelopes) and event types without a registered
// handler are logged and committed, never retried: redelivery cannot fix them.
// Handler errors leave the offset uncommitted so the broker delivers the
// message again; handlers are idempotent for that reason.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("kafka consumer started", slog.Any("handled_event_types", c.registry.Types()))

	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("kafka consumer stopped")
				return
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			time.Sleep(time.Second)
			continue
		}

		if c.processMessage(ctx, message) {
			if err := c.reader.CommitMessages(ctx, message); err != nil {
				c.logger.Error("failed to commit message offset", slog.String("error", err.Error()))
			}
		}
	}
}

// processMessage reports whether the message offset should be committed.
func (c *Consumer) processMessage(ctx context.Context, message segmentio.Message) bool {
	envelope, err := eventing.DecodeEnvelope(message.Value)
	if err != nil {
		c.logger.Error("skipping malformed event envelope",
			slog.Int64("offset", message.Offset),
			slog.String("error", err.Error()),
		)
		return true
	}

	handler, ok := c.registry.Handler(envelope.Type)
	if !ok {
		c.logger.Warn("skipping event with no registered handler",
			slog.String("event_type", envelope.Type),
			slog.Int64("offset", message.Offset),
		)
		return true
	}

	handlerCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	if err := handler(handlerCtx, envelope.Data); err != nil {
		c.logger.Error("event handler failed, message will be redelivered",
			slog.String("event_type", envelope.Type),
			slog.Int64("offset", message.Offset),
			slog.String("error", err.Error()),
		)
		return false
	}

	return true
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
