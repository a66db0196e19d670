package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	capabilityDomain "github.com/capsvc/selfservice/internal/capability/domain"
	"github.com/capsvc/selfservice/internal/database"
	apperrors "github.com/capsvc/selfservice/internal/errors"
)

// MySQLCapabilityRepository implements capability lookups for MySQL databases.
type MySQLCapabilityRepository struct {
	db *sql.DB
}

// NewMySQLCapabilityRepository creates a new MySQLCapabilityRepository.
func NewMySQLCapabilityRepository(db *sql.DB) *MySQLCapabilityRepository {
	return &MySQLCapabilityRepository{db: db}
}

// GetByID retrieves a capability by id.
func (r *MySQLCapabilityRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*capabilityDomain.Capability, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, status, created_at FROM capabilities WHERE id = ?`

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
