// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
	outboxDomain "github.com/capsvc/selfservice/internal/outbox/domain"
)

// PostgreSQLOutboxEventRepository handles outbox event persistence for PostgreSQL.
type PostgreSQLOutboxEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxEventRepository creates a new PostgreSQLOutboxEventRepository.
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *PostgreSQLOutboxEventRepository {
	return &PostgreSQLOutboxEventRepository{db: db}
}

// Create inserts a new outbox event. Called inside the unit-of-work transaction
// so the row commits or rolls back together with the aggregate change.
func (r *PostgreSQLOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events
			  (id, event_type, topic, partition_key, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.Topic, event.PartitionKey,
		event.Payload, event.Status, event.Retries, event.LastError, event.ProcessedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetPendingEvents retrieves pending events with limit. Rows are locked with
// SKIP LOCKED so concurrent relay instances never publish the same row twice
// within one drain pass.
func (r *PostgreSQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*outboxDomain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, topic, partition_key, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM outbox_events
			  WHERE status = $1
			  ORDER BY created_at ASC, id ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, outboxDomain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*outboxDomain.OutboxEvent
	for rows.Next() {
		var event outboxDomain.OutboxEvent

		err := rows.Scan(&event.ID, &event.EventType, &event.Topic, &event.PartitionKey, &event.Payload,
			&event.Status, &event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}

	return events, nil
}

// Update updates an outbox event.
func (r *PostgreSQLOutboxEventRepository) Update(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = NOW()
			  WHERE id = $5`

	_, err := querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError, event.ProcessedAt, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	return nil
}
