package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingStatus string

const (
	BillingStatusDraft     BillingStatus = "draft"
	BillingStatusPending   BillingStatus = "pending"
	BillingStatusPaid      BillingStatus = "paid"
	BillingStatusOverdue   BillingStatus = "overdue"
	BillingStatusCancelled BillingStatus = "cancelled"
	BillingStatusRefunded  BillingStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodInsurance    PaymentMethod = "insurance"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodInsurance,
		PaymentMethodBankTransfer, PaymentMethodOnline:
		return true
	}
	return false
}

// BillingItem is one invoice line. Discount and Tax are absolute amounts.
type BillingItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BillingID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"billing_id"`
	Position    int             `gorm:"not null" json:"position"`
	Service     string          `gorm:"type:varchar(255);not null" json:"service"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	Tax         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
}

func (BillingItem) TableName() string {
	return "billing_items"
}

// PaymentDetails is stored as JSONB on the billing row
type PaymentDetails struct {
	TransactionID string     `json:"transaction_id,omitempty"`
	CardLast4     string     `json:"card_last4,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	Gateway       string     `json:"gateway,omitempty"`
	ReceiptURL    string     `json:"receipt_url,omitempty"`
}

// Value returns json value, implement driver.Valuer interface
func (p PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan scan value into PaymentDetails, implements sql.Scanner interface
func (p *PaymentDetails) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentDetails{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal payment details:", value))
	}
	return json.Unmarshal(bytes, p)
}

// Billing is an invoice for services rendered to a patient by a doctor.
// Version is bumped on every write and guards concurrent updates.
type Billing struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentID  *uuid.UUID      `gorm:"type:uuid;index" json:"appointment_id,omitempty"`
	InvoiceNumber  string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"invoice_number"`
	Date           time.Time       `gorm:"type:timestamptz;not null" json:"date"`
	DueDate        time.Time       `gorm:"type:timestamptz;not null;index" json:"due_date"`
	Status         BillingStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items          []BillingItem   `gorm:"foreignKey:BillingID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax"`
	Discount       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	AmountPaid     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount_paid"`
	Balance        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balance"`
	PaymentMethod  *PaymentMethod  `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	PaymentDetails *PaymentDetails `gorm:"type:jsonb" json:"payment_details,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	Version        int             `gorm:"not null;default:1" json:"version"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Billing) TableName() string {
	return "billings"
}

func (b *Billing) IsPaid() bool {
	return b.Status == BillingStatusPaid
}

func (b *Billing) IsCancelled() bool {
	return b.Status == BillingStatusCancelled
}

// IsEditable reports whether items, amounts or dates may still change
func (b *Billing) IsEditable() bool {
	switch b.Status {
	case BillingStatusDraft, BillingStatusPending, BillingStatusOverdue:
		return true
	}
	return false
}

// Clone returns a deep copy so callers can mutate without touching the original
func (b *Billing) Clone() *Billing {
	if b == nil {
		return nil
	}
	c := *b
	if b.Items != nil {
		c.Items = make([]BillingItem, len(b.Items))
		copy(c.Items, b.Items)
	}
	if b.AppointmentID != nil {
		id := *b.AppointmentID
		c.AppointmentID = &id
	}
	if b.PaymentMethod != nil {
		m := *b.PaymentMethod
		c.PaymentMethod = &m
	}
	if b.PaymentDetails != nil {
		d := *b.PaymentDetails
		if d.PaymentDate != nil {
			t := *d.PaymentDate
			d.PaymentDate = &t
		}
		c.PaymentDetails = &d
	}
	return &c
}
