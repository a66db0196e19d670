// Package repository implements data persistence for the membership workflow.
// Repositories support both PostgreSQL and MySQL; application rows carry an
// optimistic-concurrency version and approval rows are deduplicated per
// approver at the schema level.
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

// PostgreSQLApplicationRepository implements membership application persistence
// for PostgreSQL databases.
type PostgreSQLApplicationRepository struct {
	db *sql.DB
}

// NewPostgreSQLApplicationRepository creates a new PostgreSQLApplicationRepository.
func NewPostgreSQLApplicationRepository(db *sql.DB) *PostgreSQLApplicationRepository {
	return &PostgreSQLApplicationRepository{db: db}
}

// Create inserts a new application with its initial version.
func (r *PostgreSQLApplicationRepository) Create(
	ctx context.Context,
	application *membershipDomain.Application,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO membership_applications
			  (id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, 1, NOW(), NOW())`

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
func (r *PostgreSQLApplicationRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*membershipDomain.Application, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE id = $1`

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
// given applicant and capability, if any. Used to enforce the single-pending
// uniqueness invariant at the service boundary.
func (r *PostgreSQLApplicationRepository) GetPendingByApplicantAndCapability(
	ctx context.Context,
	applicant string,
	capabilityID uuid.UUID,
) (*membershipDomain.Application, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE applicant = $1 AND capability_id = $2 AND status = $3
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

// ListExpired retrieves pending applications whose deadline has passed. Rows
// are locked with SKIP LOCKED so concurrent sweeper runs never cancel the same
// application twice. Approvals are not loaded; cancellation does not need them.
func (r *PostgreSQLApplicationRepository) ListExpired(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*membershipDomain.Application, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE status = $1 AND expires_on <= $2
			  ORDER BY expires_on ASC
			  LIMIT $3
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

// Update persists the application's current state under optimistic concurrency:
// the version is compared and swapped, and a stale version surfaces as
// ErrStaleApplication. New approvals are appended with a conflict-free insert
// so replays of the same approver remain idempotent at the persistence layer.
func (r *PostgreSQLApplicationRepository) Update(
	ctx context.Context,
	application *membershipDomain.Application,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE membership_applications
			  SET status = $1, expires_on = $2, version = version + 1, updated_at = NOW()
			  WHERE id = $3 AND version = $4`

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

	approvalQuery := `INSERT INTO membership_approvals (id, application_id, approved_by, approved_at)
					  VALUES ($1, $2, $3, $4)
					  ON CONFLICT (application_id, approved_by) DO NOTHING`

	for _, approval := range application.Approvals {
		_, err := querier.ExecContext(ctx, approvalQuery, approval.ID, approval.ApplicationID, approval.ApprovedBy, approval.ApprovedAt)
		if err != nil {
			return apperrors.Wrap(err, "failed to persist membership approval")
		}
	}

	return nil
}

// Delete physically removes an application; approval rows cascade.
func (r *PostgreSQLApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM membership_applications WHERE id = $1`, id)
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

func (r *PostgreSQLApplicationRepository) loadApprovals(
	ctx context.Context,
	querier database.Querier,
	application *membershipDomain.Application,
) error {
	query := `SELECT id, application_id, approved_by, approved_at
			  FROM membership_approvals
			  WHERE application_id = $1
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

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*membershipDomain.Application, error) {
	var application membershipDomain.Application

	err := row.Scan(
		&application.ID,
		&application.CapabilityID,
		&application.Applicant,
		&application.Status,
		&application.SubmittedAt,
		&application.ExpiresOn,
		&application.Version,
		&application.CreatedAt,
		&application.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, membershipDomain.ErrApplicationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan membership application")
	}

	return &application, nil
}
