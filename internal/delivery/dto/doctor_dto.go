package dto

import (
	"github.com/google/uuid"
)

// DoctorProfileResponse represents doctor profile data in responses
type DoctorProfileResponse struct {
	LicenseNumber  string `json:"license_number"`
	Specialization string `json:"specialization"`
	Biography      string `json:"biography,omitempty"`
}

type DoctorListRequest struct {
	Specialization string
	Limit          int
	Offset         int
}

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	LicenseNumber  string    `json:"license_number"`
	Specialization string    `json:"specialization"`
	Biography      string    `json:"biography,omitempty"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int64            `json:"total"`
}
