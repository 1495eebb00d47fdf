package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/pkg/config"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/jobs"
)

// Literal per-precondition messages for manual reassessment. Each failing
// precondition reports its own message; none is ever retried automatically.
const (
	MsgOriginalNotCompleted     = "original assessment of the application is not in completed status"
	MsgApplicationNotAssessable = "application is in cancelled or draft status and cannot be reassessed"
	MsgApplicationArchived      = "application is archived and cannot be reassessed"
)

type assessmentStore interface {
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	GetOriginal(ctx context.Context, applicationID string) (*models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	UpdateStatus(ctx context.Context, id string, from []models.StudentAssessmentStatus, to models.StudentAssessmentStatus) error
	ListStaleQueued(ctx context.Context, threshold time.Duration, now time.Time) ([]models.Assessment, error)
}

type assessmentApplicationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
}

type workQueue interface {
	Enqueue(job jobs.Job) error
}

// AwardCalculator is the external collaborator that produces award values for
// an in-progress assessment. The engine owns only the status workflow.
type AwardCalculator interface {
	Calculate(ctx context.Context, assessmentID string) error
}

// AssessmentService drives the assessment status machine, creates manual
// reassessments, and re-enqueues work items the queue lost.
type AssessmentService struct {
	repo       assessmentStore
	apps       assessmentApplicationStore
	queue      workQueue
	audit      auditLogger
	calculator AwardCalculator
	cfg        config.AssessmentConfig
	logger     *zap.Logger
}

// AssessmentServiceOption configures the service.
type AssessmentServiceOption func(*AssessmentService)

// WithAwardCalculator attaches the award calculation collaborator invoked by
// the queue consumer.
func WithAwardCalculator(calc AwardCalculator) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.calculator = calc
	}
}

// NewAssessmentService constructs the service.
func NewAssessmentService(repo assessmentStore, apps assessmentApplicationStore, queue workQueue, audit auditLogger, cfg config.AssessmentConfig, logger *zap.Logger, opts ...AssessmentServiceOption) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AssessmentService{repo: repo, apps: apps, queue: queue, audit: audit, cfg: cfg, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateManualReassessment creates and enqueues a reassessment run after
// checking every precondition. The preconditions are checked in a fixed
// order so the reported message is deterministic.
func (s *AssessmentService) CreateManualReassessment(ctx context.Context, applicationID, actorID string) (*models.Assessment, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if app.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, MsgApplicationArchived)
	}
	if app.Status == models.ApplicationStatusCancelled || app.Status == models.ApplicationStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, MsgApplicationNotAssessable)
	}

	original, err := s.repo.GetOriginal(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnprocessable, MsgOriginalNotCompleted)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load original assessment")
	}
	if original.Status != models.AssessmentStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, MsgOriginalNotCompleted)
	}

	assessment := &models.Assessment{
		ApplicationID: applicationID,
		OfferingID:    original.OfferingID,
		TriggerType:   models.TriggerManualReassessment,
		Status:        models.AssessmentStatusSubmitted,
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reassessment")
	}

	if err := s.Queue(ctx, assessment.ID); err != nil {
		return nil, err
	}
	assessment.Status = models.AssessmentStatusQueued

	s.emitAudit(ctx, actorID, models.AuditActionReassessmentCreate, assessment.ID, assessment.Status)
	return assessment, nil
}

// Queue moves a submitted assessment into the work queue.
func (s *AssessmentService) Queue(ctx context.Context, assessmentID string) error {
	from := []models.StudentAssessmentStatus{models.AssessmentStatusSubmitted}
	if err := s.transition(ctx, assessmentID, from, models.AssessmentStatusQueued,
		"assessment is not in a status that allows queueing"); err != nil {
		return err
	}
	return s.enqueue(assessmentID, jobs.KindProcessAssessment)
}

// MarkInProgress records that a worker picked the calculation up.
func (s *AssessmentService) MarkInProgress(ctx context.Context, assessmentID string) error {
	from := []models.StudentAssessmentStatus{models.AssessmentStatusQueued}
	return s.transition(ctx, assessmentID, from, models.AssessmentStatusInProgress,
		"assessment is not in a status that allows starting")
}

// Complete finalizes a calculation run.
func (s *AssessmentService) Complete(ctx context.Context, assessmentID string) error {
	from := []models.StudentAssessmentStatus{models.AssessmentStatusInProgress}
	return s.transition(ctx, assessmentID, from, models.AssessmentStatusCompleted,
		"assessment is not in a status that allows completion")
}

// QueueCancellation asks the queue consumer to cancel a run that has not
// completed yet.
func (s *AssessmentService) QueueCancellation(ctx context.Context, assessmentID string) error {
	from := []models.StudentAssessmentStatus{
		models.AssessmentStatusSubmitted,
		models.AssessmentStatusQueued,
		models.AssessmentStatusInProgress,
	}
	if err := s.transition(ctx, assessmentID, from, models.AssessmentStatusCancellationQueued,
		"assessment is not in a status that allows cancellation"); err != nil {
		return err
	}
	return s.enqueue(assessmentID, jobs.KindCancelAssessment)
}

// FinalizeCancellation records the consumer's confirmation of a cancellation.
func (s *AssessmentService) FinalizeCancellation(ctx context.Context, assessmentID string) error {
	from := []models.StudentAssessmentStatus{models.AssessmentStatusCancellationQueued}
	return s.transition(ctx, assessmentID, from, models.AssessmentStatusCancelled,
		"assessment has no queued cancellation to finalize")
}

// RequeueStale re-dispatches work items stuck in a queued status past the
// configured threshold. The enqueue is idempotent at the consumer, so a
// duplicate dispatch cannot double-apply a terminal state change.
func (s *AssessmentService) RequeueStale(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.repo.ListStaleQueued(ctx, s.cfg.RetryThreshold, now)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan stale assessments")
	}

	requeued := 0
	for _, assessment := range stale {
		kind := jobs.KindProcessAssessment
		if assessment.Status == models.AssessmentStatusCancellationQueued {
			kind = jobs.KindCancelAssessment
		}
		if err := s.enqueue(assessment.ID, kind); err != nil {
			s.logger.Warn("failed to requeue stale assessment",
				zap.String("assessment_id", assessment.ID), zap.Error(err))
			continue
		}
		requeued++
	}
	if requeued > 0 {
		s.logger.Info("requeued stale assessments",
			zap.Int("count", requeued), zap.Duration("threshold", s.cfg.RetryThreshold))
	}
	return requeued, nil
}

// HandleJob is the queue consumer entry point. Transitions are guarded, so a
// re-delivered item for a run already past the expected status degrades to a
// logged no-op instead of double-applying a terminal change.
func (s *AssessmentService) HandleJob(ctx context.Context, job jobs.Job) error {
	switch job.Kind {
	case jobs.KindProcessAssessment:
		if err := s.MarkInProgress(ctx, job.AssessmentID); err != nil {
			return s.absorbStaleJob(job, err)
		}
		if s.calculator != nil {
			if err := s.calculator.Calculate(ctx, job.AssessmentID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "award calculation failed")
			}
		}
		if err := s.Complete(ctx, job.AssessmentID); err != nil {
			return s.absorbStaleJob(job, err)
		}
		return nil
	case jobs.KindCancelAssessment:
		if err := s.FinalizeCancellation(ctx, job.AssessmentID); err != nil {
			return s.absorbStaleJob(job, err)
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrContractViolation,
			fmt.Sprintf("unrecognized assessment job kind: %s", job.Kind))
	}
}

// absorbStaleJob swallows precondition failures for duplicate deliveries.
func (s *AssessmentService) absorbStaleJob(job jobs.Job, err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrUnprocessable.Code {
		s.logger.Debug("dropping stale assessment work item",
			zap.String("assessment_id", job.AssessmentID), zap.String("kind", string(job.Kind)))
		return nil
	}
	return err
}

func (s *AssessmentService) transition(ctx context.Context, assessmentID string, from []models.StudentAssessmentStatus, to models.StudentAssessmentStatus, failureMessage string) error {
	if err := s.repo.UpdateStatus(ctx, assessmentID, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnprocessable, failureMessage)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment status")
	}
	s.emitAudit(ctx, "", models.AuditActionAssessmentTransition, assessmentID, to)
	return nil
}

func (s *AssessmentService) enqueue(assessmentID string, kind jobs.Kind) error {
	if s.queue == nil {
		return nil
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:           uuid.NewString(),
		Kind:         kind,
		AssessmentID: assessmentID,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue assessment work item")
	}
	return nil
}

func (s *AssessmentService) emitAudit(ctx context.Context, actorID string, action models.AuditAction, assessmentID string, status models.StudentAssessmentStatus) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "assessment",
		ResourceID: &assessmentID,
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	log.NewValues, _ = json.Marshal(map[string]string{"status": string(status)})
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
