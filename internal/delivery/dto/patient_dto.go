package dto

import (
	"github.com/google/uuid"
)

// PatientProfileResponse represents patient profile data in responses
type PatientProfileResponse struct {
	UserID           uuid.UUID `json:"user_id"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	DateOfBirth      string    `json:"date_of_birth"`
	Gender           string    `json:"gender"`
	Address          string    `json:"address,omitempty"`
	BloodType        string    `json:"blood_type,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
}
