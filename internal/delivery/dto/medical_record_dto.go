package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type PrescriptionRequest struct {
	Medication   string `json:"medication" validate:"required,max=255"`
	Dosage       string `json:"dosage" validate:"required,max=100"`
	Frequency    string `json:"frequency" validate:"required,max=100"`
	DurationDays int    `json:"duration_days" validate:"omitempty,min=1"`
	Instructions string `json:"instructions" validate:"omitempty"`
}

type CreateMedicalRecordRequest struct {
	PatientID     uuid.UUID             `json:"patient_id" validate:"required"`
	AppointmentID *uuid.UUID            `json:"appointment_id" validate:"omitempty"`
	VisitDate     *time.Time            `json:"visit_date" validate:"omitempty"`
	Diagnosis     string                `json:"diagnosis" validate:"required"`
	Symptoms      string                `json:"symptoms" validate:"omitempty"`
	Treatment     string                `json:"treatment" validate:"omitempty"`
	Prescriptions []PrescriptionRequest `json:"prescriptions" validate:"omitempty,dive"`
	Notes         string                `json:"notes" validate:"omitempty"`
}

// Response DTOs

type PrescriptionResponse struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationDays int    `json:"duration_days,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type MedicalRecordResponse struct {
	ID            uuid.UUID              `json:"id"`
	PatientID     uuid.UUID              `json:"patient_id"`
	DoctorID      uuid.UUID              `json:"doctor_id"`
	AppointmentID *uuid.UUID             `json:"appointment_id,omitempty"`
	Doctor        *UserSummary           `json:"doctor,omitempty"`
	VisitDate     time.Time              `json:"visit_date"`
	Diagnosis     string                 `json:"diagnosis"`
	Symptoms      string                 `json:"symptoms,omitempty"`
	Treatment     string                 `json:"treatment,omitempty"`
	Prescriptions []PrescriptionResponse `json:"prescriptions"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type MedicalRecordListResponse struct {
	Records []MedicalRecordResponse `json:"records"`
	Total   int64                   `json:"total"`
}
