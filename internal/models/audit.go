package models

import "time"

// AuditAction labels entries in the append-only audit trail.
type AuditAction string

const (
	AuditActionEditStatusChange     AuditAction = "application.edit_status_change"
	AuditActionChangeRequestCancel  AuditAction = "application.change_request_cancel"
	AuditActionAssessmentTransition AuditAction = "assessment.status_transition"
	AuditActionReassessmentCreate   AuditAction = "assessment.reassessment_create"
	AuditActionFundingBatchSent     AuditAction = "disbursement.batch_sent"
	AuditActionRestrictionCycle     AuditAction = "restriction.reconciliation_cycle"
	AuditActionAppealDecision       AuditAction = "appeal.decision"
)

// AuditLog records who changed what. Financial records are never deleted, so
// the audit trail plus status history is the full story of a record.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	ActorID    *string     `db:"actor_id" json:"actorId,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	Resource   string      `db:"resource" json:"resource"`
	ResourceID *string     `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte      `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte      `db:"new_values" json:"newValues,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}
