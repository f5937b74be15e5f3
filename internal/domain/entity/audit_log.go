package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a system audit trail entry. Rows are append-only.
type AuditLog struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action       string     `gorm:"type:varchar(100);not null;index" json:"action"`
	ResourceType string     `gorm:"type:varchar(50);not null;index:idx_audit_resource" json:"resource_type"`
	ResourceID   string     `gorm:"type:varchar(64);index:idx_audit_resource" json:"resource_id,omitempty"`
	Description  string     `gorm:"type:text" json:"description"`
	IPAddress    string     `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent    string     `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata     JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// AuditLogFilter narrows audit log listings
type AuditLogFilter struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

// Resource types
const (
	AuditResourceUser          = "user"
	AuditResourceAppointment   = "appointment"
	AuditResourceBilling       = "billing"
	AuditResourceMedicalRecord = "medical_record"
	AuditResourceDoctor        = "doctor"
)

// Common audit actions
const (
	AuditActionUserLogin    = "user.login"
	AuditActionUserLogout   = "user.logout"
	AuditActionUserRegister = "user.register"

	AuditActionAppointmentCreate       = "appointment.create"
	AuditActionAppointmentRead         = "appointment.read"
	AuditActionAppointmentList         = "appointment.list"
	AuditActionAppointmentUpdate       = "appointment.update"
	AuditActionAppointmentStatus       = "appointment.status"
	AuditActionAppointmentCancel       = "appointment.cancel"
	AuditActionAppointmentTelehealth   = "appointment.telehealth_link"
	AuditActionAvailabilityRead        = "appointment.availability"
	AuditActionAppointmentSuggestSlots = "appointment.suggest_slots"

	AuditActionBillingCreate  = "billing.create"
	AuditActionBillingRead    = "billing.read"
	AuditActionBillingList    = "billing.list"
	AuditActionBillingUpdate  = "billing.update"
	AuditActionBillingPayment = "billing.payment"
	AuditActionBillingCancel  = "billing.cancel"
	AuditActionBillingOverdue = "billing.overdue"

	AuditActionMedicalRecordCreate = "medical_record.create"
	AuditActionMedicalRecordRead   = "medical_record.read"
	AuditActionMedicalRecordList   = "medical_record.list"
)
