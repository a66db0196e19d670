package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
)

// MySQLMembershipRepository implements membership persistence for MySQL databases.
type MySQLMembershipRepository struct {
	db *sql.DB
}

// NewMySQLMembershipRepository creates a new MySQLMembershipRepository.
func NewMySQLMembershipRepository(db *sql.DB) *MySQLMembershipRepository {
	return &MySQLMembershipRepository{db: db}
}

// Create inserts a new membership.
func (r *MySQLMembershipRepository) Create(
	ctx context.Context,
	membership *membershipDomain.Membership,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO memberships (id, capability_id, user_id, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, membership.ID, membership.CapabilityID, membership.UserID, membership.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create membership")
	}
	return nil
}

// Exists reports whether the user is an active member of the capability.
func (r *MySQLMembershipRepository) Exists(
	ctx context.Context,
	capabilityID uuid.UUID,
	userID string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM memberships WHERE capability_id = ? AND user_id = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, capabilityID, userID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check membership existence")
	}
	return exists, nil
}

// ActiveMembers retrieves the user ids of all active members of a capability.
func (r *MySQLMembershipRepository) ActiveMembers(
	ctx context.Context,
	capabilityID uuid.UUID,
) ([]string, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id FROM memberships WHERE capability_id = ? ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, capabilityID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active members")
	}
	defer rows.Close() //nolint:errcheck

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan member")
		}
		members = append(members, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list active members")
	}

	return members, nil
}
