// Package domain defines the membership application aggregate and its state machine.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/capsvc/selfservice/internal/eventing"
)

// ApplicationStatus represents the lifecycle state of a membership application.
type ApplicationStatus string

const (
	// ApplicationStatusPendingApproval is the initial state; approvals may only
	// be appended while the application is here.
	ApplicationStatusPendingApproval ApplicationStatus = "pending_approval"
	// ApplicationStatusFinalized is the terminal approved state.
	ApplicationStatusFinalized ApplicationStatus = "finalized"
	// ApplicationStatusCancelled is the terminal rejected/expired state.
	ApplicationStatusCancelled ApplicationStatus = "cancelled"
)

// Approval records one member vouching for an applicant. Immutable once created.
type Approval struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	ApprovedBy    string
	ApprovedAt    time.Time
}

// Application is the membership application aggregate root. State transitions
// are monotonic: once Finalized or Cancelled, nothing moves the application
// again, which is what makes the asynchronous policies and the expiry sweeper
// safe to race against each other.
type Application struct {
	eventing.EventSource

	ID           uuid.UUID
	CapabilityID uuid.UUID
	Applicant    string
	Status       ApplicationStatus
	SubmittedAt  time.Time
	ExpiresOn    time.Time
	Approvals    []Approval

	// Version is the optimistic-concurrency token persisted with the row.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Submit constructs a new application in the pending-approval state and raises
// the submitted event. The caller (the use case) is responsible for the
// uniqueness invariant: no other pending application for the same applicant
// and capability.
func Submit(capabilityID uuid.UUID, applicant string, now time.Time, expiryWindow time.Duration) *Application {
	application := &Application{
		ID:           uuid.Must(uuid.NewV7()),
		CapabilityID: capabilityID,
		Applicant:    applicant,
		Status:       ApplicationStatusPendingApproval,
		SubmittedAt:  now,
		ExpiresOn:    now.Add(expiryWindow),
	}

	application.Raise(ApplicationSubmitted{
		ApplicationID: application.ID.String(),
		CapabilityID:  capabilityID.String(),
		Applicant:     applicant,
		SubmittedAt:   application.SubmittedAt,
		ExpiresOn:     application.ExpiresOn,
	})

	return application
}

// Approve appends an approval. Self-approval is rejected, approving a
// non-pending application is rejected, and a repeated approval by the same
// approver is a silent no-op so duplicate broker deliveries never double-count.
func (a *Application) Approve(approvedBy string, now time.Time) error {
	if a.Status != ApplicationStatusPendingApproval {
		return ErrApplicationNotPending
	}
	if approvedBy == a.Applicant {
		return ErrSelfApproval
	}
	if a.HasApprovalFrom(approvedBy) {
		return nil
	}

	a.Approvals = append(a.Approvals, Approval{
		ID:            uuid.Must(uuid.NewV7()),
		ApplicationID: a.ID,
		ApprovedBy:    approvedBy,
		ApprovedAt:    now,
	})

	a.Raise(ApplicationApprovalReceived{
		ApplicationID: a.ID.String(),
		ApprovedBy:    approvedBy,
		ApprovedAt:    now,
	})

	return nil
}

// Finalize moves a pending application to its terminal approved state. Quorum
// is the caller's responsibility: it depends on capability membership data the
// aggregate does not own.
func (a *Application) Finalize(now time.Time) error {
	if a.Status != ApplicationStatusPendingApproval {
		return ErrApplicationNotPending
	}

	a.Status = ApplicationStatusFinalized
	a.UpdatedAt = now

	a.Raise(ApplicationFinalized{
		ApplicationID: a.ID.String(),
		CapabilityID:  a.CapabilityID.String(),
		Applicant:     a.Applicant,
	})

	return nil
}

// Cancel moves a pending application to its terminal cancelled state.
// Cancelling an already terminal application is an idempotent no-op.
func (a *Application) Cancel(now time.Time, reason string) {
	if a.Status != ApplicationStatusPendingApproval {
		return
	}

	a.Status = ApplicationStatusCancelled
	a.UpdatedAt = now

	a.Raise(ApplicationCancelled{
		ApplicationID: a.ID.String(),
		Reason:        reason,
	})
}

// HasApprovalFrom reports whether the given approver already approved.
func (a *Application) HasApprovalFrom(approvedBy string) bool {
	for _, approval := range a.Approvals {
		if approval.ApprovedBy == approvedBy {
			return true
		}
	}
	return false
}

// IsExpired reports whether the application has outlived its deadline.
func (a *Application) IsExpired(now time.Time) bool {
	return !a.ExpiresOn.After(now)
}
