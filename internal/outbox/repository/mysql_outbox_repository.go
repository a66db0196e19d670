package repository

import (
	"context"
	"database/sql"

	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
	outboxDomain "github.com/capsvc/selfservice/internal/outbox/domain"
)

// MySQLOutboxEventRepository handles outbox event persistence for MySQL.
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a new MySQLOutboxEventRepository.
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{db: db}
}

// Create inserts a new outbox event.
func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events
			  (id, event_type, topic, partition_key, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.Topic, event.PartitionKey,
		event.Payload, event.Status, event.Retries, event.LastError, event.ProcessedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetPendingEvents retrieves pending events with limit.
func (r *MySQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*outboxDomain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, topic, partition_key, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM outbox_events
			  WHERE status = ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?
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
func (r *MySQLOutboxEventRepository) Update(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, retries = ?, last_error = ?, processed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError, event.ProcessedAt, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	return nil
}
