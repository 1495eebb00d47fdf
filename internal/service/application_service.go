package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
)

// MsgNoChangeRequestFound is returned for every failed cancellation attempt,
// whether the revision is in the wrong status, belongs to another student, or
// does not exist. One message for all three keeps existence unprobeable.
const MsgNoChangeRequestFound = "no in-progress change request found"

type applicationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	UpdateEditStatus(ctx context.Context, id string, from []models.ApplicationEditStatus, to models.ApplicationEditStatus) error
	CancelChangeRequest(ctx context.Context, applicationID, studentID string) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApplicationService drives the application edit-status state machine.
type ApplicationService struct {
	repo   applicationStore
	audit  auditLogger
	logger *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationStore, audit auditLogger, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, audit: audit, logger: logger}
}

// OpenChangeRequest moves a resolved revision into Change in progress.
func (s *ApplicationService) OpenChangeRequest(ctx context.Context, applicationID, actorID string) error {
	from := []models.ApplicationEditStatus{
		models.EditStatusOriginal,
		models.EditStatusChangedWithApproval,
		models.EditStatusChangeDeclined,
		models.EditStatusChangeCancelled,
	}
	return s.transitionEdit(ctx, applicationID, actorID, from, models.EditStatusChangeInProgress,
		"application does not allow opening a change request in its current status")
}

// SubmitChangeRequest sends an in-progress change for ministry review.
func (s *ApplicationService) SubmitChangeRequest(ctx context.Context, applicationID, actorID string) error {
	from := []models.ApplicationEditStatus{models.EditStatusChangeInProgress}
	return s.transitionEdit(ctx, applicationID, actorID, from, models.EditStatusChangePendingApproval,
		"application has no change in progress to submit")
}

// ApproveChange resolves a pending change with ministry approval.
func (s *ApplicationService) ApproveChange(ctx context.Context, applicationID, actorID string) error {
	from := []models.ApplicationEditStatus{models.EditStatusChangePendingApproval}
	return s.transitionEdit(ctx, applicationID, actorID, from, models.EditStatusChangedWithApproval,
		"application has no change pending approval")
}

// DeclineChange resolves a pending change with ministry decline.
func (s *ApplicationService) DeclineChange(ctx context.Context, applicationID, actorID string) error {
	from := []models.ApplicationEditStatus{models.EditStatusChangePendingApproval}
	return s.transitionEdit(ctx, applicationID, actorID, from, models.EditStatusChangeDeclined,
		"application has no change pending approval")
}

// CancelChangeRequest aborts the student's own in-progress change request.
// Every failure mode yields the identical not-found outcome.
func (s *ApplicationService) CancelChangeRequest(ctx context.Context, applicationID, studentID string) error {
	if err := s.repo.CancelChangeRequest(ctx, applicationID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, MsgNoChangeRequestFound)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel change request")
	}
	s.emitAudit(ctx, &models.AuditLog{
		ActorID:    &studentID,
		Action:     models.AuditActionChangeRequestCancel,
		Resource:   "application",
		ResourceID: &applicationID,
		NewValues:  editStatusPayload(models.EditStatusChangeCancelled),
	})
	return nil
}

func (s *ApplicationService) transitionEdit(ctx context.Context, applicationID, actorID string, from []models.ApplicationEditStatus, to models.ApplicationEditStatus, failureMessage string) error {
	if err := s.repo.UpdateEditStatus(ctx, applicationID, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnprocessable, failureMessage)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update edit status")
	}
	s.emitAudit(ctx, &models.AuditLog{
		ActorID:    &actorID,
		Action:     models.AuditActionEditStatusChange,
		Resource:   "application",
		ResourceID: &applicationID,
		NewValues:  editStatusPayload(to),
	})
	return nil
}

func (s *ApplicationService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func editStatusPayload(status models.ApplicationEditStatus) []byte {
	payload, _ := json.Marshal(map[string]string{"editStatus": string(status)})
	return payload
}
