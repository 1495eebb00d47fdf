package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
)

type sequenceStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	ListSequenceRecords(ctx context.Context, studentID, programYearID string) ([]models.SequenceRecord, error)
}

// SequencerService orders a student's sibling applications in time so award
// calculations know which other applications can interact with the one being
// calculated. It never mutates its inputs.
type SequencerService struct {
	repo   sequenceStore
	logger *zap.Logger
}

// NewSequencerService constructs the service.
func NewSequencerService(repo sequenceStore, logger *zap.Logger) *SequencerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequencerService{repo: repo, logger: logger}
}

// SequenceForApplication loads the sibling family of the given revision and
// partitions it around that revision.
func (s *SequencerService) SequenceForApplication(ctx context.Context, applicationID string, fallbackDate *time.Time) (*models.SequencedApplications, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reference application")
	}
	records, err := s.repo.ListSequenceRecords(ctx, app.StudentID, app.ProgramYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling applications")
	}
	return s.Sequence(app.ApplicationNumber, records, fallbackDate)
}

// Sequence partitions records into previous, current, future and unsequenced
// relative to the reference application number. Records with no calculation
// date, or a date equal to the reference's, end up unsequenced: no temporal
// impact can be asserted for them. The reference being absent from its own
// sibling list is a caller defect and fails fatally.
func (s *SequencerService) Sequence(referenceApplicationNumber string, records []models.SequenceRecord, fallbackDate *time.Time) (*models.SequencedApplications, error) {
	var reference *models.SequenceRecord
	for i := range records {
		if records[i].ApplicationNumber == referenceApplicationNumber {
			reference = &records[i]
			break
		}
	}
	if reference == nil {
		return nil, appErrors.Clone(appErrors.ErrContractViolation,
			fmt.Sprintf("reference application %s is not present in its sibling list", referenceApplicationNumber))
	}

	referenceDate := reference.AssessmentDate
	if referenceDate == nil {
		referenceDate = fallbackDate
	}
	if referenceDate == nil {
		return nil, appErrors.Clone(appErrors.ErrContractViolation,
			fmt.Sprintf("reference application %s has no calculation date and no fallback date was provided", referenceApplicationNumber))
	}

	result := &models.SequencedApplications{
		Previous:    make([]models.SequenceRecord, 0, len(records)),
		Current:     *reference,
		Future:      make([]models.SequenceRecord, 0, len(records)),
		Unsequenced: make([]models.SequenceRecord, 0),
	}

	for _, record := range records {
		if record.ApplicationNumber == referenceApplicationNumber {
			continue
		}
		switch {
		case record.AssessmentDate == nil:
			result.Unsequenced = append(result.Unsequenced, record)
		case record.AssessmentDate.Before(*referenceDate):
			result.Previous = append(result.Previous, record)
		case record.AssessmentDate.After(*referenceDate):
			result.Future = append(result.Future, record)
		default:
			// Equal dates: treated as simultaneous rather than guessing an
			// order that could misattribute overaward impact.
			result.Unsequenced = append(result.Unsequenced, record)
		}
	}

	sort.SliceStable(result.Previous, func(i, j int) bool {
		return result.Previous[i].AssessmentDate.Before(*result.Previous[j].AssessmentDate)
	})
	sort.SliceStable(result.Future, func(i, j int) bool {
		return result.Future[i].AssessmentDate.Before(*result.Future[j].AssessmentDate)
	})

	s.logger.Debug("sequenced sibling applications",
		zap.String("reference", referenceApplicationNumber),
		zap.Int("previous", len(result.Previous)),
		zap.Int("future", len(result.Future)),
		zap.Int("unsequenced", len(result.Unsequenced)),
	)

	return result, nil
}
