// Package repository provides data persistence for the capability surface the
// membership workflow depends on.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	capabilityDomain "github.com/capsvc/selfservice/internal/capability/domain"
	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
)

// PostgreSQLCapabilityRepository implements capability lookups for PostgreSQL databases.
type PostgreSQLCapabilityRepository struct {
	db *sql.DB
}

// NewPostgreSQLCapabilityRepository creates a new PostgreSQLCapabilityRepository.
func NewPostgreSQLCapabilityRepository(db *sql.DB) *PostgreSQLCapabilityRepository {
	return &PostgreSQLCapabilityRepository{db: db}
}

// GetByID retrieves a capability by id.
func (r *PostgreSQLCapabilityRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*capabilityDomain.Capability, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, status, created_at FROM capabilities WHERE id = $1`

	var capability capabilityDomain.Capability
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&capability.ID,
		&capability.Name,
		&capability.Status,
		&capability.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, capabilityDomain.ErrCapabilityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get capability")
	}

	return &capability, nil
}
