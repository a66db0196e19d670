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

	membershipDomain "github.com/capsvc/selfservice/internal/membership/domain"
)

func TestPostgreSQLMembershipRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLMembershipRepository(db)
	membership := membershipDomain.NewMembership(uuid.Must(uuid.NewV7()), "alice", time.Now().UTC())

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO memberships`)).
		WithArgs(membership.ID, membership.CapabilityID, membership.UserID, membership.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(context.Background(), membership))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLMembershipRepository_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLMembershipRepository(db)
	capabilityID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(capabilityID, "alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), capabilityID, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLMembershipRepository_ActiveMembers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLMembershipRepository(db)
	capabilityID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM memberships`)).
		WithArgs(capabilityID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("bob").AddRow("carol"))

	members, err := repo.ActiveMembers(context.Background(), capabilityID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, members)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLMembershipRepository_ActiveMembers_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLMembershipRepository(db)
	capabilityID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM memberships`)).
		WithArgs(capabilityID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	members, err := repo.ActiveMembers(context.Background(), capabilityID)
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.NoError(t, mock.ExpectationsWereMet())
}
