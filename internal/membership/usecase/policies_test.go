package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capsvc/selfservice/internal/eventing"
	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
)

// MockApplicationUseCase is a mock implementation of ApplicationUseCase
type MockApplicationUseCase struct {
	mock.Mock
}

func (m *MockApplicationUseCase) SubmitApplication(
	ctx context.Context,
	input SubmitApplicationInput,
) (*membershipDomain.Application, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membershipDomain.Application), args.Error(1)
}

func (m *MockApplicationUseCase) ApproveApplication(
	ctx context.Context,
	applicationID uuid.UUID,
	approvedBy string,
) error {
	args := m.Called(ctx, applicationID, approvedBy)
	return args.Error(0)
}

func (m *MockApplicationUseCase) TryFinalizeApplication(ctx context.Context, applicationID uuid.UUID) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockApplicationUseCase) AcceptApplication(ctx context.Context, applicationID uuid.UUID) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockApplicationUseCase) RemoveApplication(ctx context.Context, applicationID uuid.UUID) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockApplicationUseCase) CancelExpiredApplications(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func newPoliciesFixture() (*Policies, *MockApplicationUseCase, *eventing.Registry) {
	useCase := &MockApplicationUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policies := NewPolicies(useCase, logger)
	registry := eventing.NewRegistry()
	return policies, useCase, registry
}

func TestPolicies_Register(t *testing.T) {
	policies, _, registry := newPoliciesFixture()

	require.NoError(t, policies.Register(registry))

	for _, eventType := range []string{
		membershipDomain.EventTypeApplicationApprovalReceived,
		membershipDomain.EventTypeApplicationFinalized,
		membershipDomain.EventTypeApplicationCancelled,
	} {
		_, ok := registry.Handler(eventType)
		assert.True(t, ok, eventType)
	}

	// The submitted event has no policy; it exists for downstream consumers.
	_, ok := registry.Handler(membershipDomain.EventTypeApplicationSubmitted)
	assert.False(t, ok)
}

func TestPolicies_Register_TwiceFails(t *testing.T) {
	policies, _, registry := newPoliciesFixture()

	require.NoError(t, policies.Register(registry))
	assert.Error(t, policies.Register(registry))
}

func TestPolicies_ApprovalReceivedTriggersFinalization(t *testing.T) {
	policies, useCase, registry := newPoliciesFixture()
	require.NoError(t, policies.Register(registry))

	applicationID := uuid.Must(uuid.NewV7())
	useCase.On("TryFinalizeApplication", mock.Anything, applicationID).Return(nil)

	handler, ok := registry.Handler(membershipDomain.EventTypeApplicationApprovalReceived)
	require.True(t, ok)

	payload := fmt.Sprintf(`{"application_id":%q,"approved_by":"bob"}`, applicationID)
	require.NoError(t, handler(context.Background(), []byte(payload)))
	useCase.AssertExpectations(t)
}

func TestPolicies_FinalizedTriggersAcceptance(t *testing.T) {
	policies, useCase, registry := newPoliciesFixture()
	require.NoError(t, policies.Register(registry))

	applicationID := uuid.Must(uuid.NewV7())
	useCase.On("AcceptApplication", mock.Anything, applicationID).Return(nil)

	handler, _ := registry.Handler(membershipDomain.EventTypeApplicationFinalized)
	payload := fmt.Sprintf(`{"application_id":%q,"applicant":"alice"}`, applicationID)
	require.NoError(t, handler(context.Background(), []byte(payload)))
	useCase.AssertExpectations(t)
}

func TestPolicies_CancelledTriggersRemoval(t *testing.T) {
	policies, useCase, registry := newPoliciesFixture()
	require.NoError(t, policies.Register(registry))

	applicationID := uuid.Must(uuid.NewV7())
	useCase.On("RemoveApplication", mock.Anything, applicationID).Return(nil)

	handler, _ := registry.Handler(membershipDomain.EventTypeApplicationCancelled)
	payload := fmt.Sprintf(`{"application_id":%q,"reason":"expired"}`, applicationID)
	require.NoError(t, handler(context.Background(), []byte(payload)))
	useCase.AssertExpectations(t)
}

func TestPolicies_ExpectedRacesDegradeToSkips(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"redelivered approval on finalized application", membershipDomain.ErrApplicationNotPending},
		{"redelivered cancellation on purged application", membershipDomain.ErrApplicationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policies, useCase, registry := newPoliciesFixture()
			require.NoError(t, policies.Register(registry))

			applicationID := uuid.Must(uuid.NewV7())
			useCase.On("TryFinalizeApplication", mock.Anything, applicationID).Return(tt.err)

			handler, _ := registry.Handler(membershipDomain.EventTypeApplicationApprovalReceived)
			payload := fmt.Sprintf(`{"application_id":%q}`, applicationID)

			assert.NoError(t, handler(context.Background(), []byte(payload)))
		})
	}
}

func TestPolicies_UnexpectedErrorPropagatesForRedelivery(t *testing.T) {
	policies, useCase, registry := newPoliciesFixture()
	require.NoError(t, policies.Register(registry))

	applicationID := uuid.Must(uuid.NewV7())
	dbDown := errors.New("database unavailable")
	useCase.On("AcceptApplication", mock.Anything, applicationID).Return(dbDown)

	handler, _ := registry.Handler(membershipDomain.EventTypeApplicationFinalized)
	payload := fmt.Sprintf(`{"application_id":%q}`, applicationID)

	assert.ErrorIs(t, handler(context.Background(), []byte(payload)), dbDown)
}

func TestPolicies_MalformedPayloadIsSkipped(t *testing.T) {
	policies, useCase, registry := newPoliciesFixture()
	require.NoError(t, policies.Register(registry))

	handler, _ := registry.Handler(membershipDomain.EventTypeApplicationApprovalReceived)

	assert.NoError(t, handler(context.Background(), []byte(`not json`)))
	assert.NoError(t, handler(context.Background(), []byte(`{"application_id":"not-a-uuid"}`)))
	useCase.AssertNotCalled(t, "TryFinalizeApplication", mock.Anything, mock.Anything)
}
