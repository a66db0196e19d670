// Package usecase implements the membership application business logic: the
// service-layer operations, the event-driven policies reacting to published
// events, and the expiry sweeper.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	capabilityDomain "github.com/capsvc/selfservice/internal/capability/domain"
	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
)

// ApplicationRepository defines membership application persistence operations.
type ApplicationRepository interface {
	Create(ctx context.Context, application *membershipDomain.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*membershipDomain.Application, error)
	GetPendingByApplicantAndCapability(
		ctx context.Context,
		applicant string,
		capabilityID uuid.UUID,
	) (*membershipDomain.Application, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*membershipDomain.Application, error)
	Update(ctx context.Context, application *membershipDomain.Application) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipRepository defines membership persistence operations.
type MembershipRepository interface {
	Create(ctx context.Context, membership *membershipDomain.Membership) error
	Exists(ctx context.Context, capabilityID uuid.UUID, userID string) (bool, error)
	ActiveMembers(ctx context.Context, capabilityID uuid.UUID) ([]string, error)
}

// CapabilityRepository defines the capability lookup the workflow depends on.
type CapabilityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*capabilityDomain.Capability, error)
}

// SubmitApplicationInput contains the input data for submitting an application.
type SubmitApplicationInput struct {
	CapabilityID uuid.UUID `json:"capability_id"`
	Applicant    string    `json:"applicant"`
}

// ApplicationUseCase defines the membership application service contract.
// Every state-changing operation runs inside a unit of work that also writes
// the raised domain events as outbox rows.
type ApplicationUseCase interface {
	// SubmitApplication creates a pending application for an applicant who is
	// not yet a member and has no other pending application for the capability.
	SubmitApplication(ctx context.Context, input SubmitApplicationInput) (*membershipDomain.Application, error)

	// ApproveApplication records an approval by an active capability member.
	// A repeated approval by the same member is a silent no-op.
	ApproveApplication(ctx context.Context, applicationID uuid.UUID, approvedBy string) error

	// TryFinalizeApplication finalizes the application if the approval quorum
	// is met; below quorum it is a no-op, not an error.
	TryFinalizeApplication(ctx context.Context, applicationID uuid.UUID) error

	// AcceptApplication creates the membership for a finalized application.
	// Idempotent: an existing membership short-circuits.
	AcceptApplication(ctx context.Context, applicationID uuid.UUID) error

	// RemoveApplication physically deletes a cancelled application.
	RemoveApplication(ctx context.Context, applicationID uuid.UUID) error

	// CancelExpiredApplications cancels pending applications past their
	// deadline, each in its own transaction, and returns the cancelled count.
	CancelExpiredApplications(ctx context.Context, now time.Time) (int, error)
}
