package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateAppointmentRequest books a slot. PatientID is only honoured for
// admins; patients always book for themselves.
type CreateAppointmentRequest struct {
	PatientID *uuid.UUID `json:"patient_id" validate:"omitempty"`
	DoctorID  uuid.UUID  `json:"doctor_id" validate:"required"`
	StartTime time.Time  `json:"start_time" validate:"required"`
	EndTime   time.Time  `json:"end_time" validate:"required,gtfield=StartTime"`
	Type      string     `json:"type" validate:"omitempty,oneof=in-person telehealth"`
	Reason    string     `json:"reason" validate:"required,max=2000"`
}

// UpdateAppointmentRequest reschedules or edits an appointment. Nil fields
// are left as they are.
type UpdateAppointmentRequest struct {
	StartTime *time.Time `json:"start_time" validate:"omitempty"`
	EndTime   *time.Time `json:"end_time" validate:"omitempty"`
	Type      *string    `json:"type" validate:"omitempty,oneof=in-person telehealth"`
	Reason    *string    `json:"reason" validate:"omitempty,min=1,max=2000"`
}

type UpdateAppointmentStatusRequest struct {
	Status             string `json:"status" validate:"required,oneof=confirmed completed cancelled no-show"`
	CancellationReason string `json:"cancellation_reason" validate:"required_if=Status cancelled,max=2000"`
}

// AppointmentListRequest is built from query parameters
type AppointmentListRequest struct {
	Status    []string
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Response DTOs

type AppointmentResponse struct {
	ID                 uuid.UUID    `json:"id"`
	PatientID          uuid.UUID    `json:"patient_id"`
	DoctorID           uuid.UUID    `json:"doctor_id"`
	Patient            *UserSummary `json:"patient,omitempty"`
	Doctor             *UserSummary `json:"doctor,omitempty"`
	StartTime          time.Time    `json:"start_time"`
	EndTime            time.Time    `json:"end_time"`
	Status             string       `json:"status"`
	Type               string       `json:"type"`
	Reason             string       `json:"reason"`
	CancellationReason *string      `json:"cancellation_reason,omitempty"`
	TelehealthLink     *string      `json:"telehealth_link,omitempty"`
	PaymentStatus      string       `json:"payment_status"`
	LastModifiedBy     *uuid.UUID   `json:"last_modified_by,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
}

type TelehealthLinkResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Link          string    `json:"telehealth_link"`
}
