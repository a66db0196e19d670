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

var applicationColumns = []string{
	"id", "capability_id", "applicant", "status", "submitted_at", "expires_on", "version", "created_at", "updated_at",
}

var approvalColumns = []string{"id", "application_id", "approved_by", "approved_at"}

func newApplicationFixture(t *testing.T) *membershipDomain.Application {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	application := membershipDomain.Submit(uuid.Must(uuid.NewV7()), "alice", now, 14*24*time.Hour)
	application.DrainEvents()
	return application
}

func TestPostgreSQLApplicationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	application := newApplicationFixture(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO membership_applications`)).
		WithArgs(
			application.ID,
			application.CapabilityID,
			application.Applicant,
			application.Status,
			application.SubmittedAt,
			application.ExpiresOn,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), application)
	require.NoError(t, err)
	assert.Equal(t, int64(1), application.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	application := newApplicationFixture(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capability_id, applicant, status, submitted_at, expires_on, version, created_at, updated_at
			  FROM membership_applications
			  WHERE id = $1`)).
		WithArgs(application.ID).
		WillReturnRows(sqlmock.NewRows(applicationColumns).AddRow(
			application.ID, application.CapabilityID, application.Applicant, application.Status,
			application.SubmittedAt, application.ExpiresOn, int64(3), now, now,
		))

	approvalID := uuid.Must(uuid.NewV7())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, application_id, approved_by, approved_at
			  FROM membership_approvals`)).
		WithArgs(application.ID).
		WillReturnRows(sqlmock.NewRows(approvalColumns).AddRow(approvalID, application.ID, "bob", now))

	got, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	assert.Equal(t, application.ID, got.ID)
	assert.Equal(t, int64(3), got.Version)
	require.Len(t, got.Approvals, 1)
	assert.Equal(t, "bob", got.Approvals[0].ApprovedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capability_id, applicant, status`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(applicationColumns))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, membershipDomain.ErrApplicationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	application := newApplicationFixture(t)
	application.Version = 1
	require.NoError(t, application.Approve("bob", time.Now().UTC()))
	application.DrainEvents()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE membership_applications`)).
		WithArgs(application.Status, application.ExpiresOn, application.ID, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	approval := application.Approvals[0]
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO membership_approvals`)).
		WithArgs(approval.ID, approval.ApplicationID, approval.ApprovedBy, approval.ApprovedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Update(context.Background(), application)
	require.NoError(t, err)
	assert.Equal(t, int64(2), application.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_Update_StaleVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	application := newApplicationFixture(t)
	application.Version = 1

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE membership_applications`)).
		WithArgs(application.Status, application.ExpiresOn, application.ID, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), application)
	assert.ErrorIs(t, err, membershipDomain.ErrStaleApplication)
	assert.Equal(t, int64(1), application.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM membership_applications WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM membership_applications WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Delete(context.Background(), id)
	assert.ErrorIs(t, err, membershipDomain.ErrApplicationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_ListExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	now := time.Now().UTC()
	first := newApplicationFixture(t)
	second := newApplicationFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE SKIP LOCKED`)).
		WithArgs(membershipDomain.ApplicationStatusPendingApproval, now, 50).
		WillReturnRows(sqlmock.NewRows(applicationColumns).
			AddRow(first.ID, first.CapabilityID, first.Applicant, first.Status,
				first.SubmittedAt, first.ExpiresOn, int64(1), now, now).
			AddRow(second.ID, second.CapabilityID, second.Applicant, second.Status,
				second.SubmittedAt, second.ExpiresOn, int64(1), now, now))

	applications, err := repo.ListExpired(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, applications, 2)
	assert.Equal(t, first.ID, applications[0].ID)
	assert.Equal(t, second.ID, applications[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApplicationRepository_GetPendingByApplicantAndCapability_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLApplicationRepository(db)
	capabilityID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE applicant = $1 AND capability_id = $2 AND status = $3`)).
		WithArgs("alice", capabilityID, membershipDomain.ApplicationStatusPendingApproval).
		WillReturnRows(sqlmock.NewRows(applicationColumns))

	_, err = repo.GetPendingByApplicantAndCapability(context.Background(), "alice", capabilityID)
	assert.ErrorIs(t, err, membershipDomain.ErrApplicationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
