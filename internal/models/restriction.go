package models

import "time"

// RestrictionSource distinguishes where a ledger entry originated.
type RestrictionSource string

const (
	RestrictionSourceFederal    RestrictionSource = "Federal"
	RestrictionSourceProvincial RestrictionSource = "Provincial"
)

// FederalRestrictionRow is one row of the externally supplied daily snapshot.
// StudentID is null until the resolution phase matches the natural key
// (SIN, last name, birth date) against a known student.
type FederalRestrictionRow struct {
	ID         int64     `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	SIN        string    `db:"sin" json:"sin"`
	LastName   string    `db:"last_name" json:"lastName"`
	BirthDate  time.Time `db:"birth_date" json:"birthDate"`
	StudentID  *string   `db:"student_id" json:"studentId,omitempty"`
	ImportedAt time.Time `db:"imported_at" json:"importedAt"`
}

// StudentRestriction is one activation episode in the local ledger. A code
// reactivated after deactivation gets a fresh row; CreatedAt keeps the
// original activation time so activation duration stays computable.
type StudentRestriction struct {
	ID              string            `db:"id" json:"id"`
	StudentID       string            `db:"student_id" json:"studentId"`
	RestrictionCode string            `db:"restriction_code" json:"restrictionCode"`
	Source          RestrictionSource `db:"source" json:"source"`
	IsActive        bool              `db:"is_active" json:"isActive"`
	IsBlocking      bool              `db:"is_blocking" json:"isBlocking"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	LastConfirmedAt time.Time         `db:"last_confirmed_at" json:"lastConfirmedAt"`
	DeactivatedAt   *time.Time        `db:"deactivated_at" json:"deactivatedAt,omitempty"`
}

// ReconciliationResult reports what one import cycle changed.
type ReconciliationResult struct {
	ResolvedRows     int64     `json:"resolvedRows"`
	NewLedgerIDs     []string  `json:"newLedgerIds"`
	DeactivatedCount int64     `json:"deactivatedCount"`
	RefreshedCount   int64     `json:"refreshedCount"`
	CompletedAt      time.Time `json:"completedAt"`
}
