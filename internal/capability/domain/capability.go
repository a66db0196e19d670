// Package domain defines the minimal capability surface the membership
// workflow depends on. The full capability domain (AWS accounts, topics,
// RBAC grants) lives elsewhere; this module only needs existence and status.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/capsvc/selfservice/internal/errors"
)

// CapabilityStatus represents the lifecycle state of a capability.
type CapabilityStatus string

const (
	CapabilityStatusActive  CapabilityStatus = "active"
	CapabilityStatusDeleted CapabilityStatus = "deleted"
)

// Capability is a team-owned area of the platform users apply to join.
type Capability struct {
	ID        uuid.UUID
	Name      string
	Status    CapabilityStatus
	CreatedAt time.Time
}

// IsActive reports whether the capability accepts new memberships.
func (c *Capability) IsActive() bool {
	return c.Status == CapabilityStatusActive
}

// Domain-specific errors for capability operations.
var (
	// ErrCapabilityNotFound indicates the requested capability does not exist.
	ErrCapabilityNotFound = errors.Wrap(errors.ErrNotFound, "capability not found")
)
