package models

import "time"

// ApplicationStatus tracks the overall lifecycle of an application revision.
type ApplicationStatus string

const (
	ApplicationStatusDraft       ApplicationStatus = "Draft"
	ApplicationStatusSubmitted   ApplicationStatus = "Submitted"
	ApplicationStatusInProgress  ApplicationStatus = "In Progress"
	ApplicationStatusCompleted   ApplicationStatus = "Completed"
	ApplicationStatusCancelled   ApplicationStatus = "Cancelled"
	ApplicationStatusOverwritten ApplicationStatus = "Overwritten"
)

// ApplicationEditStatus tracks the change-request workflow for a submitted
// application revision.
type ApplicationEditStatus string

const (
	EditStatusOriginal              ApplicationEditStatus = "Original"
	EditStatusChangeInProgress      ApplicationEditStatus = "Change in progress"
	EditStatusChangePendingApproval ApplicationEditStatus = "Change pending approval"
	EditStatusChangedWithApproval   ApplicationEditStatus = "Changed with approval"
	EditStatusChangeDeclined        ApplicationEditStatus = "Change declined"
	EditStatusChangeCancelled       ApplicationEditStatus = "Change cancelled"
)

// InProgressEditStatuses are the only edit statuses a student may cancel from.
var InProgressEditStatuses = []ApplicationEditStatus{
	EditStatusChangeInProgress,
	EditStatusChangePendingApproval,
}

// Application is one revision of a student's submission for a program year.
// Revisions sharing an application number form an append-only chain;
// PrecedingApplicationID points at the revision this one superseded.
type Application struct {
	ID                     string                `db:"id" json:"id"`
	ApplicationNumber      string                `db:"application_number" json:"applicationNumber"`
	StudentID              string                `db:"student_id" json:"studentId"`
	ProgramYearID          string                `db:"program_year_id" json:"programYearId"`
	Status                 ApplicationStatus     `db:"status" json:"status"`
	EditStatus             ApplicationEditStatus `db:"edit_status" json:"editStatus"`
	SubmittedDate          *time.Time            `db:"submitted_date" json:"submittedDate,omitempty"`
	IsArchived             bool                  `db:"is_archived" json:"isArchived"`
	CurrentAssessmentID    *string               `db:"current_assessment_id" json:"currentAssessmentId,omitempty"`
	PrecedingApplicationID *string               `db:"preceding_application_id" json:"precedingApplicationId,omitempty"`
	CreatedAt              time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt              *time.Time            `db:"updated_at" json:"updatedAt,omitempty"`
}
