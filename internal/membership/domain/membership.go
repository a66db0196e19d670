package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership is the record created when a finalized application is accepted.
// It is the durable fact "this user is a member of this capability".
type Membership struct {
	ID           uuid.UUID
	CapabilityID uuid.UUID
	UserID       string
	CreatedAt    time.Time
}

// NewMembership creates a membership for the given capability and user.
func NewMembership(capabilityID uuid.UUID, userID string, now time.Time) *Membership {
	return &Membership{
		ID:           uuid.Must(uuid.NewV7()),
		CapabilityID: capabilityID,
		UserID:       userID,
		CreatedAt:    now,
	}
}
