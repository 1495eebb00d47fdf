package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/internal/repository"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
)

// MsgAppealModified is reported when the decision target changed since the
// reviewer last read it, distinct from a plain not-found.
const MsgAppealModified = "appeal was modified since it was last read"

type appealStore interface {
	GetByID(ctx context.Context, id string) (*models.AppealRequest, error)
	UpdateDecision(ctx context.Context, params repository.UpdateDecisionParams) error
}

// AppealActionHandler executes one declared follow-up action of an approved
// appeal.
type AppealActionHandler interface {
	Apply(ctx context.Context, appeal *models.AppealRequest) error
}

// AppealActionHandlerFunc allows using plain functions.
type AppealActionHandlerFunc func(ctx context.Context, appeal *models.AppealRequest) error

// Apply implements AppealActionHandler.
func (f AppealActionHandlerFunc) Apply(ctx context.Context, appeal *models.AppealRequest) error {
	return f(ctx, appeal)
}

// AppealService processes ministry decisions on student appeals and runs the
// actions an approved appeal declares, each kind at most once.
type AppealService struct {
	repo     appealStore
	audit    auditLogger
	handlers map[models.AppealActionKind]AppealActionHandler
	fallback AppealActionHandler
	logger   *zap.Logger
}

// AppealServiceOption configures the service.
type AppealServiceOption func(*AppealService)

// WithAppealActionHandlers sets the handler map keyed by action kind.
func WithAppealActionHandlers(handlers map[models.AppealActionKind]AppealActionHandler) AppealServiceOption {
	return func(s *AppealService) {
		for k, v := range handlers {
			s.handlers[k] = v
		}
	}
}

// NewAppealService constructs the service. The default handler is a no-op
// covering note-only decisions; unknown kinds never reach it.
func NewAppealService(repo appealStore, audit auditLogger, logger *zap.Logger, opts ...AppealServiceOption) *AppealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AppealService{
		repo:     repo,
		audit:    audit,
		handlers: make(map[models.AppealActionKind]AppealActionHandler),
		fallback: AppealActionHandlerFunc(func(context.Context, *models.AppealRequest) error { return nil }),
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// DecisionInput carries the reviewer's verdict plus the updated-at they read,
// used to detect a concurrent modification.
type DecisionInput struct {
	Status       models.AppealStatus
	Note         string
	LastModified time.Time
}

// ProcessDecision records the verdict and, on approval, dispatches the
// appeal's declared actions deduplicated by kind.
func (s *AppealService) ProcessDecision(ctx context.Context, appealID string, input DecisionInput, reviewerID string) (*models.AppealRequest, error) {
	if input.Status != models.AppealStatusApproved && input.Status != models.AppealStatusDeclined {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision status must be Approved or Declined")
	}

	appeal, err := s.repo.GetByID(ctx, appealID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal")
	}
	if appeal.Status != models.AppealStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "appeal has already been decided")
	}
	if !appeal.UpdatedAt.Equal(input.LastModified) {
		return nil, appErrors.Clone(appErrors.ErrStaleState, MsgAppealModified)
	}

	now := time.Now().UTC()
	params := repository.UpdateDecisionParams{
		ID:                appealID,
		Status:            input.Status,
		DecidedBy:         reviewerID,
		DecidedAt:         now,
		ExpectedUpdatedAt: appeal.UpdatedAt,
	}
	if input.Note != "" {
		params.Note = &input.Note
	}
	if err := s.repo.UpdateDecision(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race between the read above and the guarded write.
			return nil, appErrors.Clone(appErrors.ErrStaleState, MsgAppealModified)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record appeal decision")
	}

	appeal.Status = input.Status
	appeal.DecidedBy = &reviewerID
	appeal.DecidedAt = &now
	appeal.UpdatedAt = now
	if input.Note != "" {
		appeal.Note = &input.Note
	}

	if input.Status == models.AppealStatusApproved {
		if err := s.dispatchActions(ctx, appeal); err != nil {
			return nil, err
		}
	}

	s.emitAudit(ctx, reviewerID, appeal)
	return appeal, nil
}

// dispatchActions runs each declared action kind at most once, in first-seen
// order. An unrecognized kind is a defect in whatever wrote the appeal row.
func (s *AppealService) dispatchActions(ctx context.Context, appeal *models.AppealRequest) error {
	seen := make(map[models.AppealActionKind]struct{}, len(appeal.DeclaredActions))
	for _, raw := range appeal.DeclaredActions {
		kind := models.AppealActionKind(raw)
		if _, done := seen[kind]; done {
			continue
		}
		seen[kind] = struct{}{}

		if !knownActionKind(kind) {
			return appErrors.Clone(appErrors.ErrContractViolation,
				fmt.Sprintf("unrecognized appeal action kind: %s", kind))
		}

		handler, ok := s.handlers[kind]
		if !ok {
			handler = s.fallback
		}
		if err := handler.Apply(ctx, appeal); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("appeal action %s failed", kind))
		}
	}
	return nil
}

func knownActionKind(kind models.AppealActionKind) bool {
	switch kind {
	case models.AppealActionReassessment,
		models.AppealActionReleaseFunding,
		models.AppealActionNoteOnly:
		return true
	}
	return false
}

func (s *AppealService) emitAudit(ctx context.Context, reviewerID string, appeal *models.AppealRequest) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"status":  appeal.Status,
		"actions": appeal.DeclaredActions,
	})
	log := &models.AuditLog{
		ActorID:    &reviewerID,
		Action:     models.AuditActionAppealDecision,
		Resource:   "appeal",
		ResourceID: &appeal.ID,
		NewValues:  payload,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
