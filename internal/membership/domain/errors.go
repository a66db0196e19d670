package domain

import (
	"github.com/capsvc/selfservice/internal/errors"
)

// Domain-specific errors for membership application operations.
var (
	// ErrApplicationNotFound indicates the requested application does not exist.
	ErrApplicationNotFound = errors.Wrap(errors.ErrNotFound, "membership application not found")

	// ErrPendingApplicationExists indicates the applicant already has a pending
	// application for the same capability.
	ErrPendingApplicationExists = errors.Wrap(errors.ErrConflict, "a pending membership application already exists")

	// ErrAlreadyMember indicates the applicant is already an active member of the capability.
	ErrAlreadyMember = errors.Wrap(errors.ErrConflict, "applicant already has an active membership")

	// ErrSelfApproval indicates an applicant tried to approve their own application.
	ErrSelfApproval = errors.Wrap(errors.ErrForbidden, "applicants cannot approve their own application")

	// ErrNotAuthorizedToApprove indicates the approver is not an active member of
	// the target capability.
	ErrNotAuthorizedToApprove = errors.Wrap(errors.ErrForbidden, "approver is not an active member of the capability")

	// ErrApplicationNotPending indicates a transition that requires the pending state.
	ErrApplicationNotPending = errors.Wrap(errors.ErrInvalidState, "membership application is not pending approval")

	// ErrApplicationNotFinalized indicates an acceptance of an application that is not finalized.
	ErrApplicationNotFinalized = errors.Wrap(errors.ErrInvalidState, "membership application is not finalized")

	// ErrApplicationNotCancelled indicates a removal of an application that is not cancelled.
	ErrApplicationNotCancelled = errors.Wrap(errors.ErrInvalidState, "membership application is not cancelled")

	// ErrStaleApplication indicates the application row was modified concurrently
	// and the optimistic version check failed.
	ErrStaleApplication = errors.Wrap(errors.ErrConflict, "membership application was modified concurrently")

	// ErrMembershipExists indicates the membership row already exists.
	ErrMembershipExists = errors.Wrap(errors.ErrConflict, "membership already exists")
)
