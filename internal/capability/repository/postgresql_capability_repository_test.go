package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	capabilityDomain "github.com/capsvc/selfservice/internal/capability/domain"
)

func TestPostgreSQLCapabilityRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLCapabilityRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, status, created_at FROM capabilities WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at"}).
			AddRow(id, "payments", capabilityDomain.CapabilityStatusActive, time.Now().UTC()))

	capability, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, capability.ID)
	assert.Equal(t, "payments", capability.Name)
	assert.True(t, capability.IsActive())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLCapabilityRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLCapabilityRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, status, created_at FROM capabilities WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at"}))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, capabilityDomain.ErrCapabilityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
