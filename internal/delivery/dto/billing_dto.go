package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// BillingItemRequest is one invoice line. Discount and tax are absolute
// amounts; a non-zero total must match the recomputed one.
type BillingItemRequest struct {
	Service     string          `json:"service" validate:"required,max=255"`
	Description string          `json:"description" validate:"omitempty"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// CreateBillingRequest issues an invoice. DoctorID is required for admins;
// doctors always bill as themselves.
type CreateBillingRequest struct {
	PatientID     uuid.UUID            `json:"patient_id" validate:"required"`
	DoctorID      *uuid.UUID           `json:"doctor_id" validate:"omitempty"`
	AppointmentID *uuid.UUID           `json:"appointment_id" validate:"omitempty"`
	Date          *time.Time           `json:"date" validate:"omitempty"`
	DueDate       *time.Time           `json:"due_date" validate:"omitempty"`
	Status        string               `json:"status" validate:"omitempty,oneof=draft pending"`
	Items         []BillingItemRequest `json:"items" validate:"required,min=1,dive"`
	Tax           decimal.Decimal      `json:"tax"`
	Discount      decimal.Decimal      `json:"discount"`
	Notes         string               `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateBillingRequest edits an unpaid invoice. Nil fields are kept.
type UpdateBillingRequest struct {
	Items    []BillingItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Tax      *decimal.Decimal     `json:"tax"`
	Discount *decimal.Decimal     `json:"discount"`
	DueDate  *time.Time           `json:"due_date" validate:"omitempty"`
	Status   *string              `json:"status" validate:"omitempty,oneof=draft pending"`
	Notes    *string              `json:"notes" validate:"omitempty,max=2000"`
}

type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"payment_method" validate:"required"`
	TransactionID string          `json:"transaction_id" validate:"omitempty,max=100"`
	CardLast4     string          `json:"card_last4" validate:"omitempty,len=4,numeric"`
	Gateway       string          `json:"gateway" validate:"omitempty,max=50"`
	ReceiptURL    string          `json:"receipt_url" validate:"omitempty,url"`
}

// BillingListRequest is built from query parameters
type BillingListRequest struct {
	Status    []string
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Limit     int
	Offset    int
}

// Response DTOs

type BillingItemResponse struct {
	Position    int             `json:"position"`
	Service     string          `json:"service"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

type PaymentDetailsResponse struct {
	TransactionID string     `json:"transaction_id,omitempty"`
	CardLast4     string     `json:"card_last4,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	Gateway       string     `json:"gateway,omitempty"`
	ReceiptURL    string     `json:"receipt_url,omitempty"`
}

type BillingResponse struct {
	ID             uuid.UUID               `json:"id"`
	InvoiceNumber  string                  `json:"invoice_number"`
	PatientID      uuid.UUID               `json:"patient_id"`
	DoctorID       uuid.UUID               `json:"doctor_id"`
	AppointmentID  *uuid.UUID              `json:"appointment_id,omitempty"`
	Patient        *UserSummary            `json:"patient,omitempty"`
	Doctor         *UserSummary            `json:"doctor,omitempty"`
	Date           time.Time               `json:"date"`
	DueDate        time.Time               `json:"due_date"`
	Status         string                  `json:"status"`
	Items          []BillingItemResponse   `json:"items"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	Tax            decimal.Decimal         `json:"tax"`
	Discount       decimal.Decimal         `json:"discount"`
	Total          decimal.Decimal         `json:"total"`
	AmountPaid     decimal.Decimal         `json:"amount_paid"`
	Balance        decimal.Decimal         `json:"balance"`
	PaymentMethod  *string                 `json:"payment_method,omitempty"`
	PaymentDetails *PaymentDetailsResponse `json:"payment_details,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	Version        int                     `json:"version"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type BillingListResponse struct {
	Billings []BillingResponse `json:"billings"`
	Total    int64             `json:"total"`
}
