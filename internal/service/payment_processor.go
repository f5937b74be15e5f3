package service

import (
	"strings"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentInput struct {
	Amount        decimal.Decimal
	Method        entity.PaymentMethod
	TransactionID string
	CardLast4     string
	Gateway       string
	ReceiptURL    string
}

type PaymentProcessor struct {
	clock clock.Clock
}

func NewPaymentProcessor(clk clock.Clock) *PaymentProcessor {
	return &PaymentProcessor{clock: clk}
}

// ApplyPayment returns a payment-applied copy of invoice; invoice itself is
// left untouched so the caller can retry against a fresher read. Persisting
// the copy is the caller's job.
func (p *PaymentProcessor) ApplyPayment(invoice *entity.Billing, in PaymentInput) (*entity.Billing, error) {
	switch invoice.Status {
	case entity.BillingStatusPaid:
		return nil, ErrInvoiceAlreadyPaid
	case entity.BillingStatusCancelled, entity.BillingStatusRefunded:
		return nil, ErrInvoiceNotPayable
	}
	if !in.Amount.IsPositive() {
		return nil, ErrPaymentAmountInvalid
	}
	if in.Method == "" {
		return nil, ErrPaymentMethodMissing
	}
	if !entity.IsValidPaymentMethod(in.Method) {
		return nil, ErrPaymentMethodInvalid
	}

	now := p.clock.Now()
	updated := invoice.Clone()

	updated.AmountPaid = roundMoney(updated.AmountPaid.Add(in.Amount))
	updated.Balance = updated.Total.Sub(updated.AmountPaid)
	method := in.Method
	updated.PaymentMethod = &method
	updated.PaymentDetails = mergePaymentDetails(updated.PaymentDetails, in, now)

	if !updated.Balance.IsPositive() {
		updated.Status = entity.BillingStatusPaid
	} else if updated.Status == entity.BillingStatusOverdue {
		updated.Status = entity.BillingStatusPending
	}
	return updated, nil
}

// mergePaymentDetails overlays the supplied fields on what is already stored.
// The transaction id is replaced on every payment, generated when absent.
func mergePaymentDetails(existing *entity.PaymentDetails, in PaymentInput, now time.Time) *entity.PaymentDetails {
	details := entity.PaymentDetails{}
	if existing != nil {
		details = *existing
	}

	details.TransactionID = strings.TrimSpace(in.TransactionID)
	if details.TransactionID == "" {
		details.TransactionID = "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
	}
	if in.CardLast4 != "" {
		details.CardLast4 = in.CardLast4
	}
	if in.Gateway != "" {
		details.Gateway = in.Gateway
	}
	if in.ReceiptURL != "" {
		details.ReceiptURL = in.ReceiptURL
	}
	paidAt := now
	details.PaymentDate = &paidAt
	return &details
}
