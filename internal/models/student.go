package models

import "time"

// Student is the aid recipient every application revision and restriction
// ledger entry hangs off.
type Student struct {
	ID           string     `db:"id" json:"id"`
	SIN          string     `db:"sin" json:"sin"`
	GivenNames   string     `db:"given_names" json:"givenNames"`
	LastName     string     `db:"last_name" json:"lastName"`
	BirthDate    time.Time  `db:"birth_date" json:"birthDate"`
	SINValidated bool       `db:"sin_validated" json:"sinValidated"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// MSFAANumber is the signed master loan agreement a student needs before
// any disbursement can be funded. A cancelled agreement blocks funding even
// when signed.
type MSFAANumber struct {
	ID            string            `db:"id" json:"id"`
	StudentID     string            `db:"student_id" json:"studentId"`
	MSFAANumber   string            `db:"msfaa_number" json:"msfaaNumber"`
	Intensity     OfferingIntensity `db:"offering_intensity" json:"offeringIntensity"`
	DateSigned    *time.Time        `db:"date_signed" json:"dateSigned,omitempty"`
	CancelledDate *time.Time        `db:"cancelled_date" json:"cancelledDate,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
}
