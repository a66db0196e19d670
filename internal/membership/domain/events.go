package domain

import (
	"time"
)

// Canonical event type tags. Legacy hyphenated spellings of these tags are
// normalized at the wire-decoding edge, never registered as separate handlers.
const (
	EventTypeApplicationSubmitted        = "membership_application.submitted"
	EventTypeApplicationApprovalReceived = "membership_application.approval_received"
	EventTypeApplicationFinalized        = "membership_application.finalized"
	EventTypeApplicationCancelled        = "membership_application.cancelled"
)

// ApplicationSubmitted is raised when a new membership application enters the
// pending-approval state.
type ApplicationSubmitted struct {
	ApplicationID string    `json:"application_id"`
	CapabilityID  string    `json:"capability_id"`
	Applicant     string    `json:"applicant"`
	SubmittedAt   time.Time `json:"submitted_at"`
	ExpiresOn     time.Time `json:"expires_on"`
}

func (e ApplicationSubmitted) EventType() string    { return EventTypeApplicationSubmitted }
func (e ApplicationSubmitted) PartitionKey() string { return e.ApplicationID }

// ApplicationApprovalReceived is raised when an approval is appended to a
// pending application. Duplicate approvals by the same approver raise nothing.
type ApplicationApprovalReceived struct {
	ApplicationID string    `json:"application_id"`
	ApprovedBy    string    `json:"approved_by"`
	ApprovedAt    time.Time `json:"approved_at"`
}

func (e ApplicationApprovalReceived) EventType() string    { return EventTypeApplicationApprovalReceived }
func (e ApplicationApprovalReceived) PartitionKey() string { return e.ApplicationID }

// ApplicationFinalized is raised when a pending application reaches its
// terminal approved state.
type ApplicationFinalized struct {
	ApplicationID string `json:"application_id"`
	CapabilityID  string `json:"capability_id"`
	Applicant     string `json:"applicant"`
}

func (e ApplicationFinalized) EventType() string    { return EventTypeApplicationFinalized }
func (e ApplicationFinalized) PartitionKey() string { return e.ApplicationID }

// ApplicationCancelled is raised when a pending application is cancelled,
// either explicitly or by the expiry sweeper.
type ApplicationCancelled struct {
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
}

func (e ApplicationCancelled) EventType() string    { return EventTypeApplicationCancelled }
func (e ApplicationCancelled) PartitionKey() string { return e.ApplicationID }
