package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Prescription struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationDays int    `json:"duration_days,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescriptions is stored as a JSONB array
type Prescriptions []Prescription

func (p Prescriptions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

func (p *Prescriptions) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal prescriptions:", value))
	}
	return json.Unmarshal(bytes, p)
}

// MedicalRecord is one EHR entry written by a doctor for a patient
type MedicalRecord struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentID *uuid.UUID    `gorm:"type:uuid;index" json:"appointment_id,omitempty"`
	VisitDate     time.Time     `gorm:"type:timestamptz;not null" json:"visit_date"`
	Diagnosis     string        `gorm:"type:text;not null" json:"diagnosis"`
	Symptoms      string        `gorm:"type:text" json:"symptoms,omitempty"`
	Treatment     string        `gorm:"type:text" json:"treatment,omitempty"`
	Prescriptions Prescriptions `gorm:"type:jsonb" json:"prescriptions"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}
