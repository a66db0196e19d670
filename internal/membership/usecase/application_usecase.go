package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	capabilityDomain "github.com/capsvc/selfservice/internal/capability/domain"
	apperrors "github.com/capsvc/selfservice/internal/errors"
	"github.com/capsvc/selfservice/internal/eventing"
	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
	appValidation "github.com/capsvc/selfservice/internal/validation"
)

// Config holds membership application use case configuration.
type Config struct {
	// ApplicationExpiry is how long a submitted application stays open for
	// approvals before the sweeper cancels it.
	ApplicationExpiry time.Duration

	// SweepBatchSize bounds how many expired applications one sweep pass
	// cancels.
	SweepBatchSize int
}

// applicationUseCase implements ApplicationUseCase.
type applicationUseCase struct {
	config          Config
	transactor      *eventing.Transactor
	applicationRepo ApplicationRepository
	membershipRepo  MembershipRepository
	capabilityRepo  CapabilityRepository
	quorum          membershipDomain.ApprovalQuorumPolicy
	logger          *slog.Logger
	now             func() time.Time
}

// NewApplicationUseCase creates a new ApplicationUseCase.
func NewApplicationUseCase(
	config Config,
	transactor *eventing.Transactor,
	applicationRepo ApplicationRepository,
	membershipRepo MembershipRepository,
	capabilityRepo CapabilityRepository,
	logger *slog.Logger,
) ApplicationUseCase {
	return &applicationUseCase{
		config:          config,
		transactor:      transactor,
		applicationRepo: applicationRepo,
		membershipRepo:  membershipRepo,
		capabilityRepo:  capabilityRepo,
		quorum:          membershipDomain.ApprovalQuorumPolicy{},
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// validateSubmitApplicationInput validates submission input.
func (uc *applicationUseCase) validateSubmitApplicationInput(input SubmitApplicationInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.CapabilityID,
			validation.Required.Error("capability_id is required"),
		),
		validation.Field(&input.Applicant,
			validation.Required.Error("applicant is required"),
			appValidation.NotBlank,
			appValidation.UserID,
			validation.Length(1, 255).Error("applicant must be between 1 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// SubmitApplication creates a pending membership application.
func (uc *applicationUseCase) SubmitApplication(
	ctx context.Context,
	input SubmitApplicationInput,
) (*membershipDomain.Application, error) {
	if err := uc.validateSubmitApplicationInput(input); err != nil {
		return nil, err
	}

	var application *membershipDomain.Application
	err := uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
		capability, err := uc.capabilityRepo.GetByID(ctx, input.CapabilityID)
		if err != nil {
			return err
		}
		// A soft-deleted capability no longer accepts applications.
		if !capability.IsActive() {
			return capabilityDomain.ErrCapabilityNotFound
		}

		isMember, err := uc.membershipRepo.Exists(ctx, input.CapabilityID, input.Applicant)
		if err != nil {
			return err
		}
		if isMember {
			return membershipDomain.ErrAlreadyMember
		}

		_, err = uc.applicationRepo.GetPendingByApplicantAndCapability(ctx, input.Applicant, input.CapabilityID)
		if err == nil {
			return membershipDomain.ErrPendingApplicationExists
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		application = membershipDomain.Submit(input.CapabilityID, input.Applicant, uc.now(), uc.config.ApplicationExpiry)
		rec.Track(application)

		return uc.applicationRepo.Create(ctx, application)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("membership application submitted",
		slog.String("application_id", application.ID.String()),
		slog.String("capability_id", input.CapabilityID.String()),
		slog.String("applicant", input.Applicant),
	)

	return application, nil
}

// ApproveApplication records an approval by an active member of the capability.
func (uc *applicationUseCase) ApproveApplication(
	ctx context.Context,
	applicationID uuid.UUID,
	approvedBy string,
) error {
	if err := appValidation.WrapValidationError(validation.Validate(approvedBy,
		validation.Required.Error("approved_by is required"),
		appValidation.NotBlank,
	)); err != nil {
		return err
	}

	return uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
		application, err := uc.applicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		// Self-approval is rejected before the authorization check: the
		// applicant is typically not a member yet, and "you cannot approve
		// yourself" is the more truthful answer than "you are not a member".
		if approvedBy == application.Applicant {
			return membershipDomain.ErrSelfApproval
		}

		isMember, err := uc.membershipRepo.Exists(ctx, application.CapabilityID, approvedBy)
		if err != nil {
			return err
		}
		if !isMember {
			return membershipDomain.ErrNotAuthorizedToApprove
		}

		if err := application.Approve(approvedBy, uc.now()); err != nil {
			return err
		}

		// Duplicate approval: no event was raised, nothing to persist.
		if !application.HasEvents() {
			return nil
		}

		rec.Track(application)
		return uc.applicationRepo.Update(ctx, application)
	})
}

// TryFinalizeApplication finalizes the application when the approval quorum is
// met. Below quorum the call is a no-op so the approval-received policy can
// fire after every single approval.
func (uc *applicationUseCase) TryFinalizeApplication(ctx context.Context, applicationID uuid.UUID) error {
	return uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
		application, err := uc.applicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		if application.Status != membershipDomain.ApplicationStatusPendingApproval {
			return membershipDomain.ErrApplicationNotPending
		}

		activeMembers, err := uc.membershipRepo.ActiveMembers(ctx, application.CapabilityID)
		if err != nil {
			return err
		}

		if !uc.quorum.IsQuorumMet(activeMembers, application.Approvals) {
			uc.logger.Info("approval quorum not met",
				slog.String("application_id", applicationID.String()),
				slog.Int("approvals", len(application.Approvals)),
			)
			return nil
		}

		if err := application.Finalize(uc.now()); err != nil {
			return err
		}

		rec.Track(application)
		return uc.applicationRepo.Update(ctx, application)
	})
}

// AcceptApplication creates the membership for a finalized application.
func (uc *applicationUseCase) AcceptApplication(ctx context.Context, applicationID uuid.UUID) error {
	return uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
		application, err := uc.applicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		if application.Status != membershipDomain.ApplicationStatusFinalized {
			return membershipDomain.ErrApplicationNotFinalized
		}

		exists, err := uc.membershipRepo.Exists(ctx, application.CapabilityID, application.Applicant)
		if err != nil {
			return err
		}
		if exists {
			// Redelivered finalized event; the membership is already in place.
			return nil
		}

		membership := membershipDomain.NewMembership(application.CapabilityID, application.Applicant, uc.now())
		if err := uc.membershipRepo.Create(ctx, membership); err != nil {
			return err
		}

		uc.logger.Info("membership created",
			slog.String("membership_id", membership.ID.String()),
			slog.String("capability_id", membership.CapabilityID.String()),
			slog.String("user_id", membership.UserID),
		)

		return nil
	})
}

// RemoveApplication physically deletes a cancelled application.
func (uc *applicationUseCase) RemoveApplication(ctx context.Context, applicationID uuid.UUID) error {
	return uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
		application, err := uc.applicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		if application.Status != membershipDomain.ApplicationStatusCancelled {
			return membershipDomain.ErrApplicationNotCancelled
		}

		return uc.applicationRepo.Delete(ctx, applicationID)
	})
}

// CancelExpiredApplications cancels pending applications past their deadline.
// Expired ids are collected first, then each application is cancelled in its
// own transaction so one failure never rolls back the whole sweep.
func (uc *applicationUseCase) CancelExpiredApplications(ctx context.Context, now time.Time) (int, error) {
	var expiredIDs []uuid.UUID
	err := uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
		expired, err := uc.applicationRepo.ListExpired(ctx, now, uc.config.SweepBatchSize)
		if err != nil {
			return err
		}
		for _, application := range expired {
			expiredIDs = append(expiredIDs, application.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, applicationID := range expiredIDs {
		didCancel := false
		err := uc.transactor.Execute(ctx, func(ctx context.Context, rec *eventing.Recorder) error {
			application, err := uc.applicationRepo.GetByID(ctx, applicationID)
			if err != nil {
				return err
			}

			// Re-check inside this transaction: an approval flow may have
			// finalized the application since the listing.
			if application.Status != membershipDomain.ApplicationStatusPendingApproval || !application.IsExpired(now) {
				return nil
			}

			application.Cancel(uc.now(), "application expired before gathering an approval")
			if !application.HasEvents() {
				return nil
			}

			rec.Track(application)
			if err := uc.applicationRepo.Update(ctx, application); err != nil {
				return err
			}
			didCancel = true
			return nil
		})
		if err != nil {
			uc.logger.Error("failed to cancel expired application",
				slog.String("application_id", applicationID.String()),
				slog.Any("error", err),
			)
			continue
		}
		if didCancel {
			cancelled++
		}
	}

	if cancelled > 0 {
		uc.logger.Info("cancelled expired applications", slog.Int("count", cancelled))
	}

	return cancelled, nil
}
