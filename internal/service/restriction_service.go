package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/pkg/config"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
)

type restrictionStore interface {
	RunImportCycle(ctx context.Context, now time.Time) (*models.ReconciliationResult, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.StudentRestriction, error)
}

// RestrictionService runs the federal snapshot reconciliation cycle and
// exposes the ledger to the eligibility checks.
type RestrictionService struct {
	repo    restrictionStore
	cache   *CacheService
	metrics *MetricsService
	audit   auditLogger
	cfg     config.RestrictionsConfig
	logger  *zap.Logger
}

// NewRestrictionService constructs the service.
func NewRestrictionService(repo restrictionStore, cache *CacheService, metrics *MetricsService, audit auditLogger, cfg config.RestrictionsConfig, logger *zap.Logger) *RestrictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestrictionService{repo: repo, cache: cache, metrics: metrics, audit: audit, cfg: cfg, logger: logger}
}

// ReconcileFederalSnapshot runs one import cycle against the loaded snapshot
// table. The returned new ledger ids feed the notification collaborator.
// Infrastructure failures roll the whole cycle back; the caller reruns the
// full snapshot on the next schedule rather than patching incrementally.
func (s *RestrictionService) ReconcileFederalSnapshot(ctx context.Context, actorID string) (*models.ReconciliationResult, error) {
	if !s.cfg.ImportEnabled {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, "federal restriction import is disabled")
	}

	now := time.Now().UTC()
	result, err := s.repo.RunImportCycle(ctx, now)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveReconciliationCycle("failed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			"reconciliation cycle rolled back")
	}

	if s.metrics != nil {
		s.metrics.ObserveReconciliationCycle("completed")
	}
	s.invalidateEligibility(ctx)
	s.emitAudit(ctx, actorID, result)

	s.logger.Info("federal restriction snapshot reconciled",
		zap.Int64("resolved", result.ResolvedRows),
		zap.Int("activated", len(result.NewLedgerIDs)),
		zap.Int64("deactivated", result.DeactivatedCount),
		zap.Int64("refreshed", result.RefreshedCount),
	)
	return result, nil
}

// ActiveRestrictions returns a student's active ledger entries.
func (s *RestrictionService) ActiveRestrictions(ctx context.Context, studentID string) ([]models.StudentRestriction, error) {
	restrictions, err := s.repo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active restrictions")
	}
	return restrictions, nil
}

// HasBlockingRestriction is the disbursement-blocking predicate fed by the
// reconciler's output.
func (s *RestrictionService) HasBlockingRestriction(ctx context.Context, studentID string) (bool, error) {
	restrictions, err := s.ActiveRestrictions(ctx, studentID)
	if err != nil {
		return false, err
	}
	for _, restriction := range restrictions {
		if restriction.IsBlocking {
			return true, nil
		}
	}
	return false, nil
}

func (s *RestrictionService) invalidateEligibility(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "eligibility:summary:*"); err != nil {
		s.logger.Warn("failed to invalidate eligibility summaries", zap.Error(err))
	}
}

func (s *RestrictionService) emitAudit(ctx context.Context, actorID string, result *models.ReconciliationResult) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(result)
	log := &models.AuditLog{
		Action:    models.AuditActionRestrictionCycle,
		Resource:  "restriction_ledger",
		NewValues: payload,
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
