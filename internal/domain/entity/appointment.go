package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// InactiveAppointmentStatuses never block a doctor's calendar.
var InactiveAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

type AppointmentType string

const (
	AppointmentTypeInPerson   AppointmentType = "in-person"
	AppointmentTypeTelehealth AppointmentType = "telehealth"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Appointment is a scheduled encounter between one patient and one doctor.
// Rows are never deleted; cancellation is a status.
type Appointment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID           uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_doctor_start" json:"doctor_id"`
	StartTime          time.Time         `gorm:"type:timestamptz;not null;index:idx_appointments_doctor_start" json:"start_time"`
	EndTime            time.Time         `gorm:"type:timestamptz;not null" json:"end_time"`
	Status             AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Type               AppointmentType   `gorm:"type:varchar(20);not null;default:'in-person'" json:"type"`
	Reason             string            `gorm:"type:text;not null" json:"reason"`
	CancellationReason *string           `gorm:"type:text" json:"cancellation_reason,omitempty"`
	TelehealthLink     *string           `gorm:"type:text" json:"telehealth_link,omitempty"`
	PaymentStatus      PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	LastModifiedBy     *uuid.UUID        `gorm:"type:uuid" json:"last_modified_by,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Slot returns the appointment's half-open interval
func (a *Appointment) Slot() TimeSlot {
	return TimeSlot{Start: a.StartTime, End: a.EndTime}
}

// IsActive reports whether the appointment occupies the doctor's calendar
func (a *Appointment) IsActive() bool {
	for _, s := range InactiveAppointmentStatuses {
		if a.Status == s {
			return false
		}
	}
	return true
}

// IsTerminal reports whether no further status change is allowed
func (a *Appointment) IsTerminal() bool {
	switch a.Status {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

func (a *Appointment) IsTelehealth() bool {
	return a.Type == AppointmentTypeTelehealth
}

// HasParticipant reports whether userID is the patient or the doctor
func (a *Appointment) HasParticipant(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

// CanTransitionTo checks the scheduled -> confirmed -> completed path plus
// cancellation and no-show from any non-terminal state.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	if a.IsTerminal() {
		return false
	}
	switch next {
	case AppointmentStatusConfirmed:
		return a.Status == AppointmentStatusScheduled
	case AppointmentStatusCompleted:
		return a.Status == AppointmentStatusConfirmed
	case AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Cancel marks the appointment cancelled and records why
func (a *Appointment) Cancel(reason string) {
	a.Status = AppointmentStatusCancelled
	a.CancellationReason = &reason
}

// IsValidAppointmentStatus reports whether s is a known status
func IsValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}
