package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
)

// MySQLApplicationRepository implements membership application persistence
// for MySQL databases.
type MySQLApplicationRepository struct {
	db *sql.DB
}

// NewMySQLApplicationRepository creates a new MySQLApplicationRepository.
func NewMySQLApplicationRepository(db *sql.DB) *MySQLApplicationRepository {
	return &MySQLApplicationRepository{db: db}
}

// Create inserts a new application with its initial version.
func (r *MySQLApplicationRepository) Create(
	ctx context.Context,
	application *membershipDomain.Application,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO membership_applications
			  (id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, 1, NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		application.ID,
		application.CapabilityID,
		application.Applicant,
		application.Status,
		application.SubmittedAt,
		application.ExpiresOn,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create membership application")
	}

	application.Version = 1
	return nil
}

// GetByID retrieves an application with its approvals in approval order.
func (r *MySQLApplicationRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*membershipDomain.Application, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE id = ?`

	application, err := scanApplication(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadApprovals(ctx, querier, application); err != nil {
		return nil, err
	}

	return application, nil
}

// GetPendingByApplicantAndCapability retrieves the pending application for the
// given applicant and capability, if any.
func (r *MySQLApplicationRepository) GetPendingByApplicantAndCapability(
	ctx context.Context,
	applicant string,
	capabilityID uuid.UUID,
) (*membershipDomain.Application, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE applicant = ? AND capability_id = ? AND status = ?
			  LIMIT 1`

	application, err := scanApplication(
		querier.QueryRowContext(ctx, query, applicant, capabilityID, membershipDomain.ApplicationStatusPendingApproval),
	)
	if err != nil {
		return nil, err
	}

	if err := r.loadApprovals(ctx, querier, application); err != nil {
		return nil, err
	}

	return application, nil
}

// ListExpired retrieves pending applications whose deadline has passed.
// Approvals are not loaded; cancellation does not need them.
func (r *MySQLApplicationRepository) ListExpired(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*membershipDomain.Application, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE status = ? AND expires_on <= ?
			  ORDER BY expires_on ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, membershipDomain.ApplicationStatusPendingApproval, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired membership applications")
	}
	defer rows.Close() //nolint:errcheck

	var applications []*membershipDomain.Application
	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		applications = append(applications, application)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired membership applications")
	}

	return applications, nil
}

// Update persists the application's current state under optimistic concurrency.
func (r *MySQLApplicationRepository) Update(
	ctx context.Context,
	application *membershipDomain.Application,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE membership_applications
			  SET status = ?, expires_on = ?, version = version + 1, updated_at = NOW()
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(ctx, query, application.Status, application.ExpiresOn, application.ID, application.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to update membership application")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update membership application")
	}
	if affected == 0 {
		return membershipDomain.ErrStaleApplication
	}
	application.Version++

	approvalQuery := `INSERT IGNORE INTO membership_approvals (id, application_id, approved_by, approved_at)
					  VALUES (?, ?, ?, ?)`

	for _, approval := range application.Approvals {
		_, err := querier.ExecContext(ctx, approvalQuery, approval.ID, approval.ApplicationID, approval.ApprovedBy, approval.ApprovedAt)
		if err != nil {
			return apperrors.Wrap(err, "failed to persist membership approval")
		}
	}

	return nil
}

// Delete physically removes an application; approval rows cascade.
func (r *MySQLApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM membership_applications WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete membership application")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete membership application")
	}
	if affected == 0 {
		return membershipDomain.ErrApplicationNotFound
	}

	return nil
}

func (r *MySQLApplicationRepository) loadApprovals(
	ctx context.Context,
	querier database.Querier,
	application *membershipDomain.Application,
) error {
	query := `SELECT id, application_id, approved_by, approved_at
			  FROM membership_approvals
			  WHERE application_id = ?
			  ORDER BY approved_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, application.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load membership approvals")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var approval membershipDomain.Approval
		if err := rows.Scan(&approval.ID, &approval.ApplicationID, &approval.ApprovedBy, &approval.ApprovedAt); err != nil {
			return apperrors.Wrap(err, "failed to scan membership approval")
		}
		application.Approvals = append(application.Approvals, approval)
	}

	if err := rows.Err(); err != nil {
		return apperrors.Wrap(err, "failed to load membership approvals")
	}

	return nil
}
