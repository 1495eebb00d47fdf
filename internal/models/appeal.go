package models

import (
	"time"

	"github.com/lib/pq"
)

// AppealStatus tracks a student appeal through ministry review.
type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "Pending"
	AppealStatusApproved AppealStatus = "Approved"
	AppealStatusDeclined AppealStatus = "Declined"
)

// AppealActionKind is the fixed set of follow-up actions an approved appeal
// may declare. Unrecognized kinds are a programming defect, not user input.
type AppealActionKind string

const (
	AppealActionReassessment   AppealActionKind = "REASSESSMENT"
	AppealActionReleaseFunding AppealActionKind = "RELEASE_FUNDING"
	AppealActionNoteOnly       AppealActionKind = "NOTE_ONLY"
)

// AppealRequest is a student appeal against an assessment outcome. The
// declared actions drive post-decision processing through the action registry.
type AppealRequest struct {
	ID              string         `db:"id" json:"id"`
	ApplicationID   string         `db:"application_id" json:"applicationId"`
	StudentID       string         `db:"student_id" json:"studentId"`
	Status          AppealStatus   `db:"status" json:"status"`
	DeclaredActions pq.StringArray `db:"declared_actions" json:"declaredActions"`
	Note            *string        `db:"note" json:"note,omitempty"`
	DecidedBy       *string        `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}
