package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fas-core-api/internal/models"
)

// AssessmentRepository persists calculation runs and their status machine.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `id, application_id, offering_id, trigger_type, status, submitted_date,
       assessment_date, award_total, status_updated_on, created_at`

// GetByID fetches an assessment by identifier.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE id = $1`, assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// GetOriginal returns the original-trigger assessment of an application.
func (r *AssessmentRepository) GetOriginal(ctx context.Context, applicationID string) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments
	WHERE application_id = $1 AND trigger_type = $2
	ORDER BY created_at ASC LIMIT 1`, assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, applicationID, models.TriggerOriginalAssessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Create inserts a new assessment in Submitted status and repoints the
// owning application's current-assessment reference at it.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.Status == "" {
		assessment.Status = models.AssessmentStatusSubmitted
	}
	now := time.Now().UTC()
	if assessment.SubmittedDate.IsZero() {
		assessment.SubmittedDate = now
	}
	assessment.StatusUpdatedOn = now
	assessment.CreatedAt = now

	const insert = `INSERT INTO assessments
	(id, application_id, offering_id, trigger_type, status, submitted_date, assessment_date, award_total, status_updated_on, created_at)
	VALUES (:id, :application_id, :offering_id, :trigger_type, :status, :submitted_date, :assessment_date, :award_total, :status_updated_on, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}

	const repoint = `UPDATE applications SET current_assessment_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, repoint, assessment.ID, now, assessment.ApplicationID); err != nil {
		return fmt.Errorf("repoint current assessment: %w", err)
	}
	return nil
}

// UpdateStatus moves the assessment status machine, guarded by the statuses
// the transition is legal from. Zero rows surfaces as sql.ErrNoRows.
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id string, from []models.StudentAssessmentStatus, to models.StudentAssessmentStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("update assessment status: empty source status set")
	}
	args := make([]interface{}, 0, len(from)+2)
	args = append(args, to, id)
	placeholders := make([]string, len(from))
	for i, status := range from {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`UPDATE assessments
	SET status = $1, status_updated_on = NOW(),
	    assessment_date = CASE WHEN $1 = '%s' THEN NOW() ELSE assessment_date END
	WHERE id = $2 AND status IN (%s)`,
		models.AssessmentStatusCompleted, strings.Join(placeholders, ","))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update assessment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check assessment status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListStaleQueued returns assessments sitting in a queued status longer than
// the threshold, oldest first. These feed the idempotent retry re-enqueue.
func (r *AssessmentRepository) ListStaleQueued(ctx context.Context, threshold time.Duration, now time.Time) ([]models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments
	WHERE status IN ($1, $2) AND status_updated_on < $3
	ORDER BY status_updated_on ASC`, assessmentColumns)
	cutoff := now.Add(-threshold)
	var stale []models.Assessment
	if err := r.db.SelectContext(ctx, &stale, query,
		models.AssessmentStatusQueued, models.AssessmentStatusCancellationQueued, cutoff); err != nil {
		return nil, fmt.Errorf("list stale queued assessments: %w", err)
	}
	return stale, nil
}
