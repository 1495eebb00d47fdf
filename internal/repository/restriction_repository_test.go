package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/models"
)

func TestRestrictionRepositoryRunImportCycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRestrictionRepository(db)
	now := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE federal_restriction_snapshot")).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_restrictions")).
		WithArgs(models.RestrictionSourceFederal, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r-1").AddRow("r-2"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_restrictions sr")).
		WithArgs(models.RestrictionSourceFederal, now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_restrictions sr")).
		WithArgs(models.RestrictionSourceFederal, now).
		WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectCommit()

	result, err := repo.RunImportCycle(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(12), result.ResolvedRows)
	require.Equal(t, []string{"r-1", "r-2"}, result.NewLedgerIDs)
	require.Equal(t, int64(3), result.DeactivatedCount)
	require.Equal(t, int64(8), result.RefreshedCount)
	require.Equal(t, now, result.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestrictionRepositoryRunImportCycleRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRestrictionRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE federal_restriction_snapshot")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_restrictions")).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := repo.RunImportCycle(context.Background(), now)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestrictionRepositoryListActiveByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRestrictionRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "restriction_code", "source", "is_active", "is_blocking", "created_at", "last_confirmed_at", "deactivated_at"}).
		AddRow("r-1", "student-1", "B2", "Federal", true, true, now, now, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, restriction_code")).
		WithArgs("student-1").
		WillReturnRows(rows)

	restrictions, err := repo.ListActiveByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, restrictions, 1)
	require.True(t, restrictions[0].IsBlocking)
	require.NoError(t, mock.ExpectationsWereMet())
}
