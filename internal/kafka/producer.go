// Package kafka provides the broker integration: a producer used by the outbox
// relay and a consumer that dispatches incoming events to registered handlers.
package kafka

import (
	"context"

	segmentio "github.com/segmentio/kafka-go"

	apperrors "github.com/capsvc/selfservice/internal/errors"
)

// Writer is the subset of the segmentio kafka.Writer API the producer uses,
// extracted so tests can inject a fake.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...segmentio.Message) error
	Close() error
}

// Producer publishes already-serialized event payloads. The partition key
// carries the aggregate id, so all events of one application land on the same
// partition and consumers observe them in order.
type Producer struct {
	writer Writer
}

// NewProducer creates a Producer connected to the given brokers.
func NewProducer(brokers []string) *Producer {
	writer := &segmentio.Writer{
		Addr:         segmentio.TCP(brokers...),
		Balancer:     &segmentio.Hash{},
		RequiredAcks: segmentio.RequireAll,
	}
	return &Producer{writer: writer}
}

// NewProducerWithWriter creates a Producer with an injected writer.
func NewProducerWithWriter(writer Writer) *Producer {
	return &Producer{writer: writer}
}

// Publish writes one message to the topic with the given partition key.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	message := segmentio.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return apperrors.Wrap(err, "failed to publish message")
	}
	return nil
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
