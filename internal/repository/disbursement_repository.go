package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/fas-core-api/internal/models"
)

// DisbursementRepository reads the eligible funding set and records the
// separate mark-as-sent mutation. The eligibility read is side-effect free so
// the scheduler can call it repeatedly.
type DisbursementRepository struct {
	db *sqlx.DB
}

// NewDisbursementRepository constructs the repository.
func NewDisbursementRepository(db *sqlx.DB) *DisbursementRepository {
	return &DisbursementRepository{db: db}
}

// ListEligible returns pending schedules of Completed applications for the
// intensity, due on or before the cutoff, ascending by disbursement date.
// Predicate flags (SIN, MSFAA, blocking hold) are resolved by joins and left
// for the service-level eligibility checks.
func (r *DisbursementRepository) ListEligible(ctx context.Context, intensity models.OfferingIntensity, cutoff time.Time) ([]models.EligibleDisbursement, error) {
	const query = `SELECT ds.id AS schedule_id,
	       ds.disbursement_date,
	       a.id AS assessment_id,
	       app.id AS application_id,
	       app.application_number,
	       app.student_id,
	       o.intensity AS offering_intensity,
	       COALESCE(SUM(dv.value_amount), 0) AS total_amount,
	       st.sin_validated,
	       (m.date_signed IS NOT NULL) AS msfaa_signed,
	       (m.cancelled_date IS NOT NULL) AS msfaa_cancelled,
	       EXISTS (
	           SELECT 1 FROM student_restrictions sr
	           WHERE sr.student_id = app.student_id
	             AND sr.is_active = TRUE
	             AND sr.is_blocking = TRUE
	       ) AS has_blocking_hold
	FROM disbursement_schedules ds
	JOIN assessments a ON a.id = ds.assessment_id
	JOIN applications app ON app.id = a.application_id AND app.current_assessment_id = a.id
	JOIN education_offerings o ON o.id = a.offering_id
	JOIN students st ON st.id = app.student_id
	LEFT JOIN msfaa_numbers m ON m.id = ds.msfaa_number_id
	LEFT JOIN disbursement_values dv ON dv.schedule_id = ds.id
	WHERE ds.status = $1
	  AND app.status = $2
	  AND o.intensity = $3
	  AND ds.disbursement_date <= $4
	GROUP BY ds.id, ds.disbursement_date, a.id, app.id, app.application_number,
	         app.student_id, o.intensity, st.sin_validated, m.date_signed, m.cancelled_date
	ORDER BY ds.disbursement_date ASC, ds.id ASC`

	var eligible []models.EligibleDisbursement
	if err := r.db.SelectContext(ctx, &eligible, query,
		models.DisbursementStatusPending,
		models.ApplicationStatusCompleted,
		intensity,
		cutoff,
	); err != nil {
		return nil, fmt.Errorf("list eligible disbursements: %w", err)
	}
	return eligible, nil
}

// MarkSent stamps a produced funding batch onto its schedules. Only Pending
// rows move; the returned count lets the caller detect schedules that were
// picked up by a concurrent run since its eligibility read.
func (r *DisbursementRepository) MarkSent(ctx context.Context, scheduleIDs []string, documentNumber int64, sentAt time.Time) (int64, error) {
	if len(scheduleIDs) == 0 {
		return 0, nil
	}
	const query = `UPDATE disbursement_schedules
	SET status = $1, document_number = $2, date_sent = $3, updated_at = $3
	WHERE id = ANY($4) AND status = $5`
	result, err := r.db.ExecContext(ctx, query,
		models.DisbursementStatusSent,
		documentNumber,
		sentAt,
		pq.Array(scheduleIDs),
		models.DisbursementStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("mark disbursements sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check mark sent rows: %w", err)
	}
	return rows, nil
}
