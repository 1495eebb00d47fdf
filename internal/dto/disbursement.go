package dto

// MarkBatchSentRequest stamps a produced funding batch onto its schedules.
type MarkBatchSentRequest struct {
	DocumentNumber int64    `json:"documentNumber" validate:"required,gt=0"`
	ScheduleIDs    []string `json:"scheduleIds" validate:"required,min=1,dive,uuid4"`
}

// EligibleQuery mirrors supported eligibility listing filters.
type EligibleQuery struct {
	Intensity string `form:"intensity" validate:"required,oneof='Full Time' 'Part Time'"`
	Summary   bool   `form:"summary"`
}
