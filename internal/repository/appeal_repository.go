package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fas-core-api/internal/models"
)

// AppealRepository persists student appeals and their decisions.
type AppealRepository struct {
	db *sqlx.DB
}

// NewAppealRepository constructs the repository.
func NewAppealRepository(db *sqlx.DB) *AppealRepository {
	return &AppealRepository{db: db}
}

const appealColumns = `id, application_id, student_id, status, declared_actions, note,
       decided_by, decided_at, created_at, updated_at`

// GetByID fetches an appeal by identifier.
func (r *AppealRepository) GetByID(ctx context.Context, id string) (*models.AppealRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM appeal_requests WHERE id = $1`, appealColumns)
	var appeal models.AppealRequest
	if err := r.db.GetContext(ctx, &appeal, query, id); err != nil {
		return nil, err
	}
	return &appeal, nil
}

// UpdateDecisionParams groups the decision write.
type UpdateDecisionParams struct {
	ID                string
	Status            models.AppealStatus
	DecidedBy         string
	DecidedAt         time.Time
	Note              *string
	ExpectedUpdatedAt time.Time
}

// UpdateDecision records the reviewer's decision, guarded both by Pending
// status and by the updated_at the reviewer last read. Zero rows means the
// row is gone, already decided, or was modified since that read; the service
// re-fetches to tell those apart.
func (r *AppealRepository) UpdateDecision(ctx context.Context, params UpdateDecisionParams) error {
	const query = `UPDATE appeal_requests
	SET status = $1, decided_by = $2, decided_at = $3, note = COALESCE($4, note), updated_at = $3
	WHERE id = $5 AND status = $6 AND updated_at = $7`
	result, err := r.db.ExecContext(ctx, query,
		params.Status,
		params.DecidedBy,
		params.DecidedAt,
		params.Note,
		params.ID,
		models.AppealStatusPending,
		params.ExpectedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update appeal decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check appeal decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
