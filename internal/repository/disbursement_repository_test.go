package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/models"
)

func TestDisbursementRepositoryListEligible(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDisbursementRepository(db)
	cutoff := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"schedule_id", "disbursement_date", "assessment_id", "application_id", "application_number", "student_id", "offering_intensity", "total_amount", "sin_validated", "msfaa_signed", "msfaa_cancelled", "has_blocking_hold"}).
		AddRow("d-1", cutoff.AddDate(0, 0, -2), "a-1", "app-1", "2026-000001", "student-1", "Full Time", 1500.0, true, true, false, false)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT ds.id AS schedule_id")).
		WithArgs(models.DisbursementStatusPending, models.ApplicationStatusCompleted, models.IntensityFullTime, cutoff).
		WillReturnRows(rows)

	eligible, err := repo.ListEligible(context.Background(), models.IntensityFullTime, cutoff)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, "d-1", eligible[0].ScheduleID)
	require.True(t, eligible[0].SINValidated)
	require.False(t, eligible[0].HasBlockingHold)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDisbursementRepositoryMarkSent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDisbursementRepository(db)
	sentAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE disbursement_schedules")).
		WithArgs(models.DisbursementStatusSent, int64(4001), sentAt,
			pq.Array([]string{"d-1", "d-2"}), models.DisbursementStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 2))

	rows, err := repo.MarkSent(context.Background(), []string{"d-1", "d-2"}, 4001, sentAt)
	require.NoError(t, err)
	require.Equal(t, int64(2), rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDisbursementRepositoryMarkSentPartial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDisbursementRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE disbursement_schedules")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.MarkSent(context.Background(), []string{"d-1", "d-2"}, 4001, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
}

func TestDisbursementRepositoryMarkSentEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDisbursementRepository(db)
	rows, err := repo.MarkSent(context.Background(), nil, 4001, time.Now())
	require.NoError(t, err)
	require.Zero(t, rows)
}
