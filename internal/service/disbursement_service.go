package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/pkg/config"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/export"
)

type disbursementStore interface {
	ListEligible(ctx context.Context, intensity models.OfferingIntensity, cutoff time.Time) ([]models.EligibleDisbursement, error)
	MarkSent(ctx context.Context, scheduleIDs []string, documentNumber int64, sentAt time.Time) (int64, error)
}

// DisbursementService selects the funding-eligible schedule set. The
// selection is a pure read; marking a batch sent is the separate mutation the
// caller performs only after the funding file is durably produced.
type DisbursementService struct {
	repo    disbursementStore
	cache   *CacheService
	metrics *MetricsService
	audit   auditLogger
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	cfg     config.FundingConfig
	logger  *zap.Logger
}

// NewDisbursementService constructs the service.
func NewDisbursementService(repo disbursementStore, cache *CacheService, metrics *MetricsService, audit auditLogger, cfg config.FundingConfig, logger *zap.Logger) *DisbursementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisbursementService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		audit:   audit,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		cfg:     cfg,
		logger:  logger,
	}
}

// ListEligible returns the schedules the next funding file may pay, ascending
// by disbursement date. The repository enforces date window, schedule status
// and application status; the eligibility predicates below enforce the
// student-level preconditions resolved upstream of the query.
func (s *DisbursementService) ListEligible(ctx context.Context, intensity models.OfferingIntensity, now time.Time) ([]models.EligibleDisbursement, error) {
	cutoff := now.AddDate(0, 0, s.cfg.AnticipationDays)
	candidates, err := s.repo.ListEligible(ctx, intensity, cutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select eligible disbursements")
	}

	eligible := make([]models.EligibleDisbursement, 0, len(candidates))
	for _, candidate := range candidates {
		if reason, ok := s.passesEligibility(candidate); !ok {
			s.logger.Debug("disbursement excluded",
				zap.String("schedule_id", candidate.ScheduleID), zap.String("reason", reason))
			continue
		}
		eligible = append(eligible, candidate)
	}

	if s.metrics != nil {
		s.metrics.ObserveEligibleSelection(string(intensity), len(eligible))
	}
	return eligible, nil
}

// passesEligibility applies the student-level funding preconditions: a
// validated SIN, a signed non-cancelled MSFAA, and no active blocking hold.
func (s *DisbursementService) passesEligibility(d models.EligibleDisbursement) (string, bool) {
	switch {
	case !d.SINValidated:
		return "sin not validated", false
	case !d.MSFAASigned:
		return "msfaa not signed", false
	case d.MSFAACancelled:
		return "msfaa cancelled", false
	case d.HasBlockingHold:
		return "active blocking restriction", false
	}
	return "", true
}

// Summary returns the cached per-intensity digest of the eligible set,
// recomputing it on a miss.
func (s *DisbursementService) Summary(ctx context.Context, intensity models.OfferingIntensity, now time.Time) (*models.EligibilitySummary, error) {
	key := summaryCacheKey(intensity)
	if s.cache.Enabled() {
		var cached models.EligibilitySummary
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("eligibility summary cache read failed", zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	eligible, err := s.ListEligible(ctx, intensity, now)
	if err != nil {
		return nil, err
	}

	summary := &models.EligibilitySummary{
		Intensity:   intensity,
		Count:       len(eligible),
		GeneratedAt: now.UTC(),
	}
	for i, d := range eligible {
		summary.TotalAmount += d.TotalAmount
		if i == 0 {
			date := d.DisbursementDate
			summary.EarliestDate = &date
		}
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, summary, 0); err != nil {
			s.logger.Warn("eligibility summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// MarkBatchSent stamps a produced funding batch onto its schedules. A count
// mismatch means a concurrent run already sent part of the batch; the whole
// call is reported stale so the caller regenerates from a fresh selection.
func (s *DisbursementService) MarkBatchSent(ctx context.Context, scheduleIDs []string, documentNumber int64, actorID string, now time.Time) error {
	if len(scheduleIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one schedule id is required")
	}
	rows, err := s.repo.MarkSent(ctx, scheduleIDs, documentNumber, now.UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark batch sent")
	}
	if rows != int64(len(scheduleIDs)) {
		return appErrors.Clone(appErrors.ErrStaleState,
			fmt.Sprintf("only %d of %d schedules were still pending", rows, len(scheduleIDs)))
	}

	s.invalidateSummaries(ctx)
	s.emitAudit(ctx, actorID, documentNumber, scheduleIDs)
	return nil
}

// ExportEligible renders the eligible set as a CSV or PDF operational summary.
func (s *DisbursementService) ExportEligible(ctx context.Context, intensity models.OfferingIntensity, format string, now time.Time) ([]byte, string, error) {
	if !s.cfg.ExportEnabled {
		return nil, "", appErrors.Clone(appErrors.ErrUnprocessable, "funding batch export is disabled")
	}
	eligible, err := s.ListEligible(ctx, intensity, now)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Schedule ID", "Application Number", "Student ID", "Disbursement Date", "Amount", "Intensity"},
		Rows:    make([]map[string]string, 0, len(eligible)),
	}
	for _, d := range eligible {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Schedule ID":        d.ScheduleID,
			"Application Number": d.ApplicationNumber,
			"Student ID":         d.StudentID,
			"Disbursement Date":  d.DisbursementDate.Format("2006-01-02"),
			"Amount":             strconv.FormatFloat(d.TotalAmount, 'f', 2, 64),
			"Intensity":          string(d.OfferingIntensity),
		})
	}

	switch format {
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Eligible Disbursements (%s)", intensity))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *DisbursementService) invalidateSummaries(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "eligibility:summary:*"); err != nil {
		s.logger.Warn("failed to invalidate eligibility summaries", zap.Error(err))
	}
}

func (s *DisbursementService) emitAudit(ctx context.Context, actorID string, documentNumber int64, scheduleIDs []string) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(documentNumber, 10)
	payload, _ := json.Marshal(map[string]interface{}{"scheduleIds": scheduleIDs})
	log := &models.AuditLog{
		ActorID:    &actorID,
		Action:     models.AuditActionFundingBatchSent,
		Resource:   "funding_batch",
		ResourceID: &resourceID,
		NewValues:  payload,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func summaryCacheKey(intensity models.OfferingIntensity) string {
	return fmt.Sprintf("eligibility:summary:%s", intensity)
}
