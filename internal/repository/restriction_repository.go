package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fas-core-api/internal/models"
)

// RestrictionRepository reconciles the federal snapshot table against the
// student restriction ledger. Every phase runs on the caller's transaction:
// the four phases of one import cycle must commit or roll back together.
type RestrictionRepository struct {
	db *sqlx.DB
}

// NewRestrictionRepository constructs the repository.
func NewRestrictionRepository(db *sqlx.DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

// BeginTx opens the transaction one import cycle runs under.
func (r *RestrictionRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reconciliation tx: %w", err)
	}
	return tx, nil
}

// RunImportCycle executes the four reconciliation phases under a single
// transaction. Any phase failing rolls the whole cycle back; the ledger is
// never left half-updated relative to the snapshot, and the next scheduled
// run reprocesses the full snapshot.
func (r *RestrictionRepository) RunImportCycle(ctx context.Context, now time.Time) (*models.ReconciliationResult, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	resolved, err := r.ResolveSnapshotStudents(ctx, tx)
	if err != nil {
		return nil, err
	}
	newIDs, err := r.ActivateMissing(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	deactivated, err := r.DeactivateOrphaned(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	refreshed, err := r.RefreshConfirmed(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reconciliation tx: %w", err)
	}
	committed = true

	return &models.ReconciliationResult{
		ResolvedRows:     resolved,
		NewLedgerIDs:     newIDs,
		DeactivatedCount: deactivated,
		RefreshedCount:   refreshed,
		CompletedAt:      now,
	}, nil
}

// ResolveSnapshotStudents links every snapshot row to a known student by
// natural key. This must run before the other phases; they all depend on the
// resolved student_id.
func (r *RestrictionRepository) ResolveSnapshotStudents(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	const query = `UPDATE federal_restriction_snapshot s
	SET student_id = st.id
	FROM students st
	WHERE s.student_id IS NULL
	  AND st.sin = s.sin
	  AND LOWER(st.last_name) = LOWER(s.last_name)
	  AND st.birth_date = s.birth_date`
	result, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("resolve snapshot students: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check resolve rows: %w", err)
	}
	return rows, nil
}

// ActivateMissing inserts a fresh ledger row for every snapshot-implied
// restriction not already active for that student/code pair, and returns the
// new ledger ids for downstream notification. Reactivation after a prior
// deactivation creates a new episode rather than reviving the old row.
func (r *RestrictionRepository) ActivateMissing(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]string, error) {
	const query = `INSERT INTO student_restrictions
	(id, student_id, restriction_code, source, is_active, is_blocking, created_at, last_confirmed_at)
	SELECT gen_random_uuid(), s.student_id, s.code, $1, TRUE,
	       COALESCE(rc.is_blocking, TRUE), $2, $2
	FROM (SELECT DISTINCT student_id, code FROM federal_restriction_snapshot WHERE student_id IS NOT NULL) s
	LEFT JOIN restriction_codes rc ON rc.code = s.code
	WHERE NOT EXISTS (
	    SELECT 1 FROM student_restrictions sr
	    WHERE sr.student_id = s.student_id
	      AND sr.restriction_code = s.code
	      AND sr.source = $1
	      AND sr.is_active = TRUE
	)
	RETURNING id`
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, models.RestrictionSourceFederal, now); err != nil {
		return nil, fmt.Errorf("activate missing restrictions: %w", err)
	}
	return ids, nil
}

// DeactivateOrphaned marks inactive every active federal ledger entry whose
// student/code pair no longer appears in the snapshot.
func (r *RestrictionRepository) DeactivateOrphaned(ctx context.Context, tx *sqlx.Tx, now time.Time) (int64, error) {
	const query = `UPDATE student_restrictions sr
	SET is_active = FALSE, deactivated_at = $2
	WHERE sr.source = $1
	  AND sr.is_active = TRUE
	  AND NOT EXISTS (
	      SELECT 1 FROM federal_restriction_snapshot s
	      WHERE s.student_id = sr.student_id
	        AND s.code = sr.restriction_code
	  )`
	result, err := tx.ExecContext(ctx, query, models.RestrictionSourceFederal, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate orphaned restrictions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivate rows: %w", err)
	}
	return rows, nil
}

// RefreshConfirmed touches last_confirmed_at for ledger entries still backed
// by a snapshot row, preserving created_at so activation duration stays
// computable. New rows from this cycle already carry the cycle timestamp.
func (r *RestrictionRepository) RefreshConfirmed(ctx context.Context, tx *sqlx.Tx, now time.Time) (int64, error) {
	const query = `UPDATE student_restrictions sr
	SET last_confirmed_at = $2
	WHERE sr.source = $1
	  AND sr.is_active = TRUE
	  AND sr.last_confirmed_at < $2
	  AND EXISTS (
	      SELECT 1 FROM federal_restriction_snapshot s
	      WHERE s.student_id = sr.student_id
	        AND s.code = sr.restriction_code
	  )`
	result, err := tx.ExecContext(ctx, query, models.RestrictionSourceFederal, now)
	if err != nil {
		return 0, fmt.Errorf("refresh confirmed restrictions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check refresh rows: %w", err)
	}
	return rows, nil
}

// ListActiveByStudent returns the student's active ledger entries.
func (r *RestrictionRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.StudentRestriction, error) {
	const query = `SELECT id, student_id, restriction_code, source, is_active, is_blocking,
	       created_at, last_confirmed_at, deactivated_at
	FROM student_restrictions
	WHERE student_id = $1 AND is_active = TRUE
	ORDER BY created_at ASC`
	var restrictions []models.StudentRestriction
	if err := r.db.SelectContext(ctx, &restrictions, query, studentID); err != nil {
		return nil, fmt.Errorf("list active restrictions: %w", err)
	}
	return restrictions, nil
}
