package entity

import (
	"time"

	"github.com/google/uuid"
)

// BillingFilter is a domain-level filter for querying invoices
type BillingFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Statuses  []BillingStatus
	DueBefore *time.Time // due_date < value
	Limit     int
	Offset    int
}
