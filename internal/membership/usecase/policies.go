package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	apperrors "github.com/capsvc/selfservice/internal/errors"
	"github.com/capsvc/selfservice/internal/eventing"
	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
)

// Policies wires published membership events back into use-case operations:
// an approval triggers a finalization attempt, a finalization creates the
// membership, a cancellation purges the application row.
type Policies struct {
	useCase ApplicationUseCase
	logger  *slog.Logger
}

// NewPolicies creates the policy set over the given use case.
func NewPolicies(useCase ApplicationUseCase, logger *slog.Logger) *Policies {
	return &Policies{useCase: useCase, logger: logger}
}

// Register binds each handled event type to its policy in the registry. The
// table is explicit: adding a policy means adding a line here.
func (p *Policies) Register(registry *eventing.Registry) error {
	bindings := []struct {
		eventType string
		handler   eventing.Handler
	}{
		{membershipDomain.EventTypeApplicationApprovalReceived, p.handleApprovalReceived},
		{membershipDomain.EventTypeApplicationFinalized, p.handleFinalized},
		{membershipDomain.EventTypeApplicationCancelled, p.handleCancelled},
	}

	for _, binding := range bindings {
		if err := registry.Register(binding.eventType, binding.handler); err != nil {
			return err
		}
	}
	return nil
}

// handleApprovalReceived attempts finalization after every approval.
func (p *Policies) handleApprovalReceived(ctx context.Context, data []byte) error {
	var event membershipDomain.ApplicationApprovalReceived
	applicationID, ok := p.parseApplicationID(data, &event, func() string { return event.ApplicationID })
	if !ok {
		return nil
	}

	err := p.useCase.TryFinalizeApplication(ctx, applicationID)
	return p.degrade(err, "try_finalize", applicationID)
}

// handleFinalized creates the membership for the applicant.
func (p *Policies) handleFinalized(ctx context.Context, data []byte) error {
	var event membershipDomain.ApplicationFinalized
	applicationID, ok := p.parseApplicationID(data, &event, func() string { return event.ApplicationID })
	if !ok {
		return nil
	}

	err := p.useCase.AcceptApplication(ctx, applicationID)
	return p.degrade(err, "accept", applicationID)
}

// handleCancelled purges the cancelled application row.
func (p *Policies) handleCancelled(ctx context.Context, data []byte) error {
	var event membershipDomain.ApplicationCancelled
	applicationID, ok := p.parseApplicationID(data, &event, func() string { return event.ApplicationID })
	if !ok {
		return nil
	}

	err := p.useCase.RemoveApplication(ctx, applicationID)
	return p.degrade(err, "remove", applicationID)
}

// parseApplicationID unmarshals the event payload and parses its application
// id. Malformed payloads are logged and skipped: redelivery cannot fix them.
func (p *Policies) parseApplicationID(data []byte, event any, applicationID func() string) (uuid.UUID, bool) {
	if err := json.Unmarshal(data, event); err != nil {
		p.logger.Error("skipping unparseable event payload", slog.Any("error", err))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(applicationID())
	if err != nil {
		p.logger.Error("skipping event with invalid application id",
			slog.String("application_id", applicationID()),
			slog.Any("error", err),
		)
		return uuid.Nil, false
	}

	return id, true
}

// degrade maps expected races to logged skips. The broker delivers
// at-least-once: a redelivered cancellation finds the row already purged, a
// redelivered approval finds the application already finalized. Those are
// outcomes, not failures, and must not block the consumer offset. Anything
// else is a real failure and is returned so the message is redelivered.
func (p *Policies) degrade(err error, policy string, applicationID uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidState) {
		p.logger.Info("policy skipped",
			slog.String("policy", policy),
			slog.String("application_id", applicationID.String()),
			slog.String("reason", err.Error()),
		)
		return nil
	}

	return err
}
