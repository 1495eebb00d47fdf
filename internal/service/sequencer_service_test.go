package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
)

func datePtr(t *testing.T, raw string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", raw)
	require.NoError(t, err)
	return &parsed
}

func TestSequencePartitionsAroundReference(t *testing.T) {
	records := []models.SequenceRecord{
		{ApplicationNumber: "A-3", AssessmentDate: datePtr(t, "2025-09-15")},
		{ApplicationNumber: "A-1", AssessmentDate: datePtr(t, "2025-01-10")},
		{ApplicationNumber: "A-REF", AssessmentDate: datePtr(t, "2025-06-01")},
		{ApplicationNumber: "A-2", AssessmentDate: datePtr(t, "2025-03-20")},
		{ApplicationNumber: "A-4", AssessmentDate: nil},
	}

	svc := NewSequencerService(nil, nil)
	result, err := svc.Sequence("A-REF", records, nil)
	require.NoError(t, err)

	require.Equal(t, "A-REF", result.Current.ApplicationNumber)
	require.Len(t, result.Previous, 2)
	require.Equal(t, "A-1", result.Previous[0].ApplicationNumber)
	require.Equal(t, "A-2", result.Previous[1].ApplicationNumber)
	require.Len(t, result.Future, 1)
	require.Equal(t, "A-3", result.Future[0].ApplicationNumber)
	require.Len(t, result.Unsequenced, 1)
	require.Equal(t, "A-4", result.Unsequenced[0].ApplicationNumber)

	// Every input record lands in exactly one partition.
	total := len(result.Previous) + len(result.Future) + len(result.Unsequenced) + 1
	require.Equal(t, len(records), total)
}

func TestSequenceEqualDatesAreUnsequenced(t *testing.T) {
	shared := datePtr(t, "2025-06-01")
	records := []models.SequenceRecord{
		{ApplicationNumber: "A-REF", AssessmentDate: shared},
		{ApplicationNumber: "A-TWIN", AssessmentDate: shared},
	}

	svc := NewSequencerService(nil, nil)
	result, err := svc.Sequence("A-REF", records, nil)
	require.NoError(t, err)
	require.Empty(t, result.Previous)
	require.Empty(t, result.Future)
	require.Len(t, result.Unsequenced, 1)
	require.Equal(t, "A-TWIN", result.Unsequenced[0].ApplicationNumber)
}

func TestSequenceMissingReferenceIsFatal(t *testing.T) {
	records := []models.SequenceRecord{
		{ApplicationNumber: "A-1", AssessmentDate: datePtr(t, "2025-01-10")},
	}

	svc := NewSequencerService(nil, nil)
	_, err := svc.Sequence("A-MISSING", records, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrContractViolation.Code, appErr.Code)
}

func TestSequenceUncalculatedReferenceUsesFallbackDate(t *testing.T) {
	records := []models.SequenceRecord{
		{ApplicationNumber: "A-REF", AssessmentDate: nil},
		{ApplicationNumber: "A-1", AssessmentDate: datePtr(t, "2025-01-10")},
		{ApplicationNumber: "A-2", AssessmentDate: datePtr(t, "2025-12-01")},
	}

	svc := NewSequencerService(nil, nil)
	result, err := svc.Sequence("A-REF", records, datePtr(t, "2025-06-01"))
	require.NoError(t, err)
	require.Len(t, result.Previous, 1)
	require.Equal(t, "A-1", result.Previous[0].ApplicationNumber)
	require.Len(t, result.Future, 1)
	require.Equal(t, "A-2", result.Future[0].ApplicationNumber)
}

func TestSequenceUncalculatedReferenceWithoutFallbackIsFatal(t *testing.T) {
	records := []models.SequenceRecord{
		{ApplicationNumber: "A-REF", AssessmentDate: nil},
	}

	svc := NewSequencerService(nil, nil)
	_, err := svc.Sequence("A-REF", records, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrContractViolation.Code, appErr.Code)
}

func TestSequenceDoesNotMutateInput(t *testing.T) {
	records := []models.SequenceRecord{
		{ApplicationNumber: "A-3", AssessmentDate: datePtr(t, "2025-09-15")},
		{ApplicationNumber: "A-REF", AssessmentDate: datePtr(t, "2025-06-01")},
		{ApplicationNumber: "A-1", AssessmentDate: datePtr(t, "2025-01-10")},
	}
	original := make([]models.SequenceRecord, len(records))
	copy(original, records)

	svc := NewSequencerService(nil, nil)
	_, err := svc.Sequence("A-REF", records, nil)
	require.NoError(t, err)
	require.Equal(t, original, records)
}
