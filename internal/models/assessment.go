package models

import "time"

// AssessmentTriggerType enumerates what caused a calculation run.
type AssessmentTriggerType string

const (
	TriggerOriginalAssessment        AssessmentTriggerType = "Original assessment"
	TriggerManualReassessment        AssessmentTriggerType = "Manual reassessment"
	TriggerStudentAppeal             AssessmentTriggerType = "Student appeal"
	TriggerScholasticStandingChange  AssessmentTriggerType = "Scholastic standing change"
	TriggerRelatedApplicationChanged AssessmentTriggerType = "Related application changed"
	TriggerOfferingChange            AssessmentTriggerType = "Offering change"
)

// StudentAssessmentStatus tracks one calculation run through the work queue.
type StudentAssessmentStatus string

const (
	AssessmentStatusSubmitted          StudentAssessmentStatus = "Submitted"
	AssessmentStatusQueued             StudentAssessmentStatus = "Queued"
	AssessmentStatusInProgress         StudentAssessmentStatus = "In progress"
	AssessmentStatusCompleted          StudentAssessmentStatus = "Completed"
	AssessmentStatusCancellationQueued StudentAssessmentStatus = "Cancellation queued"
	AssessmentStatusCancelled          StudentAssessmentStatus = "Cancelled"
)

// Assessment is one award-calculation run tied to exactly one application
// revision and one offering. Superseded assessments are retained, ordered by
// AssessmentDate; the owning application points at the current one.
type Assessment struct {
	ID              string                  `db:"id" json:"id"`
	ApplicationID   string                  `db:"application_id" json:"applicationId"`
	OfferingID      *string                 `db:"offering_id" json:"offeringId,omitempty"`
	TriggerType     AssessmentTriggerType   `db:"trigger_type" json:"triggerType"`
	Status          StudentAssessmentStatus `db:"status" json:"status"`
	SubmittedDate   time.Time               `db:"submitted_date" json:"submittedDate"`
	AssessmentDate  *time.Time              `db:"assessment_date" json:"assessmentDate,omitempty"`
	AwardTotal      *float64                `db:"award_total" json:"awardTotal,omitempty"`
	StatusUpdatedOn time.Time               `db:"status_updated_on" json:"statusUpdatedOn"`
	CreatedAt       time.Time               `db:"created_at" json:"createdAt"`
}

// SequenceRecord is the projection the temporal sequencer orders: one sibling
// application of the same student/program-year family with the calculation
// date of its current assessment, when one exists.
type SequenceRecord struct {
	ApplicationID     string            `db:"application_id" json:"applicationId"`
	ApplicationNumber string            `db:"application_number" json:"applicationNumber"`
	Status            ApplicationStatus `db:"status" json:"status"`
	AssessmentDate    *time.Time        `db:"assessment_date" json:"assessmentDate,omitempty"`
	CurrentOfferingID *string           `db:"current_offering_id" json:"currentOfferingId,omitempty"`
	CurrentAppealID   *string           `db:"current_appeal_id" json:"currentAppealId,omitempty"`
}

// SequencedApplications partitions a sibling list around a reference record.
// Unsequenced holds records that cannot be ordered: no calculation date yet,
// or a date equal to the reference (no before/after can be asserted).
type SequencedApplications struct {
	Previous    []SequenceRecord `json:"previous"`
	Current     SequenceRecord   `json:"current"`
	Future      []SequenceRecord `json:"future"`
	Unsequenced []SequenceRecord `json:"unsequenced"`
}
