package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
	"github.com/capsvc/selfservice/internal/metrics"
)

// applicationUseCaseWithMetrics decorates ApplicationUseCase with metrics instrumentation.
type applicationUseCaseWithMetrics struct {
	next    ApplicationUseCase
	metrics metrics.BusinessMetrics
}

// NewApplicationUseCaseWithMetrics wraps an ApplicationUseCase with metrics recording.
func NewApplicationUseCaseWithMetrics(useCase ApplicationUseCase, m metrics.BusinessMetrics) ApplicationUseCase {
	return &applicationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *applicationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "membership", operation, status)
	a.metrics.RecordDuration(ctx, "membership", operation, time.Since(start), status)
}

// SubmitApplication records metrics for application submissions.
func (a *applicationUseCaseWithMetrics) SubmitApplication(
	ctx context.Context,
	input SubmitApplicationInput,
) (*membershipDomain.Application, error) {
	start := time.Now()
	application, err := a.next.SubmitApplication(ctx, input)
	a.record(ctx, "application_submit", start, err)
	return application, err
}

// ApproveApplication records metrics for approvals.
func (a *applicationUseCaseWithMetrics) ApproveApplication(
	ctx context.Context,
	applicationID uuid.UUID,
	approvedBy string,
) error {
	start := time.Now()
	err := a.next.ApproveApplication(ctx, applicationID, approvedBy)
	a.record(ctx, "application_approve", start, err)
	return err
}

// TryFinalizeApplication records metrics for finalization attempts.
func (a *applicationUseCaseWithMetrics) TryFinalizeApplication(ctx context.Context, applicationID uuid.UUID) error {
	start := time.Now()
	err := a.next.TryFinalizeApplication(ctx, applicationID)
	a.record(ctx, "application_try_finalize", start, err)
	return err
}

// AcceptApplication records metrics for membership creation.
func (a *applicationUseCaseWithMetrics) AcceptApplication(ctx context.Context, applicationID uuid.UUID) error {
	start := time.Now()
	err := a.next.AcceptApplication(ctx, applicationID)
	a.record(ctx, "application_accept", start, err)
	return err
}

// RemoveApplication records metrics for cancelled-application removal.
func (a *applicationUseCaseWithMetrics) RemoveApplication(ctx context.Context, applicationID uuid.UUID) error {
	start := time.Now()
	err := a.next.RemoveApplication(ctx, applicationID)
	a.record(ctx, "application_remove", start, err)
	return err
}

// CancelExpiredApplications records metrics for expiry sweeps.
func (a *applicationUseCaseWithMetrics) CancelExpiredApplications(
	ctx context.Context,
	now time.Time,
) (int, error) {
	start := time.Now()
	cancelled, err := a.next.CancelExpiredApplications(ctx, now)
	a.record(ctx, "application_sweep_expired", start, err)
	return cancelled, err
}
