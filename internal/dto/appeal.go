package dto

import "time"

// AppealDecisionRequest captures the reviewer's verdict, an optional note, and
// the last-modified timestamp the reviewer read. The timestamp guards against
// deciding on a row that changed underneath the review screen.
type AppealDecisionRequest struct {
	Status       string    `json:"status" validate:"required,oneof=Approved Declined"`
	Note         string    `json:"note" validate:"omitempty,max=2000"`
	LastModified time.Time `json:"lastModified" validate:"required"`
}
