package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fas-core-api/internal/models"
)

// ApplicationRepository persists application revisions and their edit-status
// workflow. Revisions are append-only; status columns are the only mutable part.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, application_number, student_id, program_year_id, status, edit_status,
       submitted_date, is_archived, current_assessment_id, preceding_application_id, created_at, updated_at`

// GetByID fetches an application revision by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByApplicationNumber fetches the active head revision for a stable
// application number (the one not yet overwritten).
func (r *ApplicationRepository) GetByApplicationNumber(ctx context.Context, applicationNumber string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications
	WHERE application_number = $1 AND status <> $2
	ORDER BY created_at DESC LIMIT 1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, applicationNumber, models.ApplicationStatusOverwritten); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListSequenceRecords returns the sibling family the temporal sequencer
// orders: every non-overwritten revision of the student/program-year pair,
// projected with the calculation date of its current assessment.
func (r *ApplicationRepository) ListSequenceRecords(ctx context.Context, studentID, programYearID string) ([]models.SequenceRecord, error) {
	const query = `SELECT app.id AS application_id,
	       app.application_number,
	       app.status,
	       a.assessment_date,
	       a.offering_id AS current_offering_id,
	       ap.id AS current_appeal_id
	FROM applications app
	LEFT JOIN assessments a ON a.id = app.current_assessment_id
	LEFT JOIN appeal_requests ap ON ap.application_id = app.id AND ap.status = $3
	WHERE app.student_id = $1
	  AND app.program_year_id = $2
	  AND app.status <> $4
	ORDER BY a.assessment_date ASC NULLS LAST, app.created_at ASC`
	var records []models.SequenceRecord
	if err := r.db.SelectContext(ctx, &records, query,
		studentID, programYearID, models.AppealStatusPending, models.ApplicationStatusOverwritten); err != nil {
		return nil, fmt.Errorf("list sequence records: %w", err)
	}
	return records, nil
}

// UpdateEditStatus moves the edit-status machine, guarded by the set of
// statuses the transition is legal from. Zero rows means the revision is not
// in an allowed source status (or does not exist) and surfaces as
// sql.ErrNoRows for the service to translate.
func (r *ApplicationRepository) UpdateEditStatus(ctx context.Context, id string, from []models.ApplicationEditStatus, to models.ApplicationEditStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("update edit status: empty source status set")
	}
	args := make([]interface{}, 0, len(from)+2)
	args = append(args, to, id)
	placeholders := make([]string, len(from))
	for i, status := range from {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`UPDATE applications
	SET edit_status = $1, updated_at = NOW()
	WHERE id = $2 AND edit_status IN (%s)`, strings.Join(placeholders, ","))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update edit status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check edit status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CancelChangeRequest cancels a student's in-progress change request. The
// single guarded UPDATE deliberately collapses "wrong status", "not the
// requesting student's revision" and "no such revision" into one zero-rows
// outcome so callers cannot probe for existence.
func (r *ApplicationRepository) CancelChangeRequest(ctx context.Context, applicationID, studentID string) error {
	const query = `UPDATE applications
	SET edit_status = $1, updated_at = NOW()
	WHERE id = $2 AND student_id = $3 AND edit_status IN ($4, $5)`
	result, err := r.db.ExecContext(ctx, query,
		models.EditStatusChangeCancelled,
		applicationID,
		studentID,
		models.EditStatusChangeInProgress,
		models.EditStatusChangePendingApproval,
	)
	if err != nil {
		return fmt.Errorf("cancel change request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check cancel rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Supersede marks the prior head revision overwritten and stamps the new
// head's back-reference, keeping the revision chain append-only.
func (r *ApplicationRepository) Supersede(ctx context.Context, priorID, newID string, now time.Time) error {
	const overwrite = `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3 AND status <> $1`
	if _, err := r.db.ExecContext(ctx, overwrite, models.ApplicationStatusOverwritten, now, priorID); err != nil {
		return fmt.Errorf("overwrite prior revision: %w", err)
	}
	const link = `UPDATE applications SET preceding_application_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, link, priorID, now, newID); err != nil {
		return fmt.Errorf("link superseding revision: %w", err)
	}
	return nil
}
