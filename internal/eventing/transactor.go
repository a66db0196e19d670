package eventing

import (
	"context"

	"github.com/google/uuid"

	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
	outboxDomain "github.com/capsvc/selfservice/internal/outbox/domain"
)

// OutboxEventRepository is the slice of the outbox repository the transactor
// needs: append-only creation within the current transaction.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// Transactor wraps a use-case body in a unit of work: it opens a database
// transaction, runs the body, drains the events of every aggregate the body
// tracked, writes them as outbox rows through the same transaction and
// commits. If the body returns an error the transaction rolls back, no outbox
// rows survive, and the error is rethrown unchanged.
//
// The wrapper is transport-agnostic: it knows nothing about membership
// applications, only about drainable aggregates and a destination topic.
type Transactor struct {
	txManager  database.TxManager
	outboxRepo OutboxEventRepository
	topic      string
}

// NewTransactor creates a Transactor writing outbox rows for the given topic.
func NewTransactor(txManager database.TxManager, outboxRepo OutboxEventRepository, topic string) *Transactor {
	return &Transactor{
		txManager:  txManager,
		outboxRepo: outboxRepo,
		topic:      topic,
	}
}

// Execute runs fn inside a transaction and persists the drained events of all
// tracked aggregates as pending outbox rows before committing. Event order
// within the unit of work is preserved through time-ordered v7 ids and row
// insertion order.
func (t *Transactor) Execute(ctx context.Context, fn func(ctx context.Context, rec *Recorder) error) error {
	return t.txManager.WithTx(ctx, func(ctx context.Context) error {
		rec := NewRecorder()

		if err := fn(ctx, rec); err != nil {
			return err
		}

		for _, event := range rec.Drain() {
			payload, err := Encode(event)
			if err != nil {
				return apperrors.Wrap(err, "failed to encode domain event")
			}

			row := &outboxDomain.OutboxEvent{
				ID:           uuid.Must(uuid.NewV7()),
				EventType:    event.EventType(),
				Topic:        t.topic,
				PartitionKey: event.PartitionKey(),
				Payload:      string(payload),
				Status:       outboxDomain.OutboxEventStatusPending,
			}

			if err := t.outboxRepo.Create(ctx, row); err != nil {
				return apperrors.Wrap(err, "failed to create outbox event")
			}
		}

		return nil
	})
}
