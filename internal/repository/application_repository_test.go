package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryUpdateEditStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications")).
		WithArgs(models.EditStatusChangeInProgress, "app-1", models.EditStatusOriginal, models.EditStatusChangeCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEditStatus(context.Background(), "app-1",
		[]models.ApplicationEditStatus{models.EditStatusOriginal, models.EditStatusChangeCancelled},
		models.EditStatusChangeInProgress)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateEditStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEditStatus(context.Background(), "app-1",
		[]models.ApplicationEditStatus{models.EditStatusChangeInProgress},
		models.EditStatusChangePendingApproval)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplicationRepositoryUpdateEditStatusEmptySourceSet(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	err := repo.UpdateEditStatus(context.Background(), "app-1", nil, models.EditStatusChangeInProgress)
	require.Error(t, err)
}

func TestApplicationRepositoryCancelChangeRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications")).
		WithArgs(models.EditStatusChangeCancelled, "app-1", "student-1",
			models.EditStatusChangeInProgress, models.EditStatusChangePendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CancelChangeRequest(context.Background(), "app-1", "student-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCancelChangeRequestNoMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CancelChangeRequest(context.Background(), "app-1", "someone-else")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplicationRepositoryListSequenceRecords(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	assessed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"application_id", "application_number", "status", "assessment_date", "current_offering_id", "current_appeal_id"}).
		AddRow("app-1", "2026-000001", "Completed", assessed, "offering-1", nil).
		AddRow("app-2", "2026-000002", "Submitted", nil, nil, "appeal-1")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT app.id AS application_id")).
		WithArgs("student-1", "py-2026", models.AppealStatusPending, models.ApplicationStatusOverwritten).
		WillReturnRows(rows)

	records, err := repo.ListSequenceRecords(context.Background(), "student-1", "py-2026")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "2026-000001", records[0].ApplicationNumber)
	require.NotNil(t, records[0].AssessmentDate)
	require.Nil(t, records[1].AssessmentDate)
	require.NotNil(t, records[1].CurrentAppealID)
	require.NoError(t, mock.ExpectationsWereMet())
}
