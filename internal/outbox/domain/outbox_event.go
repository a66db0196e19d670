// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// OutboxEvent represents an event in the transactional outbox pattern. Rows are
// written in the same transaction as the aggregate state change that produced
// them and drained asynchronously by the relay, which publishes the payload to
// Topic keyed by PartitionKey under at-least-once semantics.
type OutboxEvent struct {
	ID           uuid.UUID
	EventType    string
	Topic        string
	PartitionKey string
	Payload      string
	Status       OutboxEventStatus
	Retries      int
	LastError    *string
	ProcessedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
