package models

import "time"

// OfferingIntensity splits funding streams between full-time and part-time study.
type OfferingIntensity string

const (
	IntensityFullTime OfferingIntensity = "Full Time"
	IntensityPartTime OfferingIntensity = "Part Time"
)

// DisbursementScheduleStatus tracks whether a planned payment has entered a
// funding file. Sent schedules are immutable.
type DisbursementScheduleStatus string

const (
	DisbursementStatusPending DisbursementScheduleStatus = "Pending"
	DisbursementStatusSent    DisbursementScheduleStatus = "Sent"
)

// COEStatus is the institution's confirmation-of-enrollment state for a schedule.
type COEStatus string

const (
	COEStatusRequired  COEStatus = "Required"
	COEStatusCompleted COEStatus = "Completed"
	COEStatusDeclined  COEStatus = "Declined"
)

// DisbursementSchedule is one planned payment date produced by an assessment.
type DisbursementSchedule struct {
	ID               string                     `db:"id" json:"id"`
	AssessmentID     string                     `db:"assessment_id" json:"assessmentId"`
	DocumentNumber   *int64                     `db:"document_number" json:"documentNumber,omitempty"`
	DisbursementDate time.Time                  `db:"disbursement_date" json:"disbursementDate"`
	Status           DisbursementScheduleStatus `db:"status" json:"status"`
	COEStatus        COEStatus                  `db:"coe_status" json:"coeStatus"`
	MSFAANumberID    *string                    `db:"msfaa_number_id" json:"msfaaNumberId,omitempty"`
	DateSent         *time.Time                 `db:"date_sent" json:"dateSent,omitempty"`
	CreatedAt        time.Time                  `db:"created_at" json:"createdAt"`
	UpdatedAt        *time.Time                 `db:"updated_at" json:"updatedAt,omitempty"`
}

// DisbursementValue is one award line item inside a schedule.
type DisbursementValue struct {
	ID          string  `db:"id" json:"id"`
	ScheduleID  string  `db:"schedule_id" json:"scheduleId"`
	ValueType   string  `db:"value_type" json:"valueType"`
	ValueCode   string  `db:"value_code" json:"valueCode"`
	ValueAmount float64 `db:"value_amount" json:"valueAmount"`
}

// EligibleDisbursement carries just the fields the funding payload needs,
// plus the predicate flags resolved by joins so the selector service can
// apply the upstream eligibility checks without further queries.
type EligibleDisbursement struct {
	ScheduleID        string            `db:"schedule_id" json:"scheduleId"`
	DisbursementDate  time.Time         `db:"disbursement_date" json:"disbursementDate"`
	AssessmentID      string            `db:"assessment_id" json:"assessmentId"`
	ApplicationID     string            `db:"application_id" json:"applicationId"`
	ApplicationNumber string            `db:"application_number" json:"applicationNumber"`
	StudentID         string            `db:"student_id" json:"studentId"`
	OfferingIntensity OfferingIntensity `db:"offering_intensity" json:"offeringIntensity"`
	TotalAmount       float64           `db:"total_amount" json:"totalAmount"`
	SINValidated      bool              `db:"sin_validated" json:"sinValidated"`
	MSFAASigned       bool              `db:"msfaa_signed" json:"msfaaSigned"`
	MSFAACancelled    bool              `db:"msfaa_cancelled" json:"msfaaCancelled"`
	HasBlockingHold   bool              `db:"has_blocking_hold" json:"hasBlockingHold"`
}

// EligibilitySummary is the cached per-intensity digest of the eligible set.
type EligibilitySummary struct {
	Intensity    OfferingIntensity `json:"intensity"`
	Count        int               `json:"count"`
	TotalAmount  float64           `json:"totalAmount"`
	EarliestDate *time.Time        `json:"earliestDate,omitempty"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}
