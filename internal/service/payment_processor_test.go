package service

import (
	"errors"
	"strings"
	"testing"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/pkg/apperror"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func invoiceOf(total string, status entity.BillingStatus) *entity.Billing {
	return &entity.Billing{
		ID:            uuid.New(),
		InvoiceNumber: "INV-2501-0001",
		Status:        status,
		DueDate:       ts("2025-02-14T00:00:00Z"),
		Subtotal:      dec(total),
		Total:         dec(total),
		AmountPaid:    decimal.Zero,
		Balance:       dec(total),
		Version:       1,
	}
}

func TestPaymentProcessor_FullPayment(t *testing.T) {
	now := ts("2025-01-20T09:30:00Z")
	p := NewPaymentProcessor(clock.NewFixed(now))
	invoice := invoiceOf("105.00", entity.BillingStatusPending)

	got, err := p.ApplyPayment(invoice, PaymentInput{Amount: dec("105.00"), Method: entity.PaymentMethodCard, CardLast4: "4242"})
	if err != nil {
		t.Fatalf("ApplyPayment() error = %v", err)
	}
	if got.Status != entity.BillingStatusPaid || !got.Balance.Equal(decimal.Zero) || !got.AmountPaid.Equal(dec("105")) {
		t.Errorf("got status %s balance %s paid %s, want paid/0/105", got.Status, got.Balance, got.AmountPaid)
	}
	if got.PaymentMethod == nil || *got.PaymentMethod != entity.PaymentMethodCard {
		t.Errorf("payment method = %v", got.PaymentMethod)
	}
	d := got.PaymentDetails
	if d == nil || !strings.HasPrefix(d.TransactionID, "TXN-") || d.CardLast4 != "4242" || d.PaymentDate == nil || !d.PaymentDate.Equal(now) {
		t.Errorf("payment details = %+v", d)
	}
	if invoice.Status != entity.BillingStatusPending || !invoice.AmountPaid.IsZero() {
		t.Error("ApplyPayment mutated its input")
	}
}

func TestPaymentProcessor_StatusTransitions(t *testing.T) {
	tests := []struct {
		name        string
		status      entity.BillingStatus
		amount      string
		wantStatus  entity.BillingStatus
		wantBalance string
	}{
		{"partial payment keeps pending", entity.BillingStatusPending, "40", entity.BillingStatusPending, "65"},
		{"partial payment un-escalates overdue", entity.BillingStatusOverdue, "40", entity.BillingStatusPending, "65"},
		{"full payment settles overdue", entity.BillingStatusOverdue, "105", entity.BillingStatusPaid, "0"},
		{"overpayment is paid with credit", entity.BillingStatusPending, "120", entity.BillingStatusPaid, "-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaymentProcessor(clock.NewFixed(ts("2025-03-01T00:00:00Z")))
			got, err := p.ApplyPayment(invoiceOf("105", tt.status), PaymentInput{Amount: dec(tt.amount), Method: entity.PaymentMethodCash})
			if err != nil {
				t.Fatalf("ApplyPayment() error = %v", err)
			}
			if got.Status != tt.wantStatus || !got.Balance.Equal(dec(tt.wantBalance)) {
				t.Errorf("got %s / %s, want %s / %s", got.Status, got.Balance, tt.wantStatus, tt.wantBalance)
			}
		})
	}
}

func TestPaymentProcessor_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		status   entity.BillingStatus
		input    PaymentInput
		wantErr  error
		wantKind apperror.Kind
	}{
		{"already paid", entity.BillingStatusPaid, PaymentInput{Amount: dec("1"), Method: entity.PaymentMethodCash}, ErrInvoiceAlreadyPaid, apperror.KindConflict},
		{"cancelled", entity.BillingStatusCancelled, PaymentInput{Amount: dec("1"), Method: entity.PaymentMethodCash}, ErrInvoiceNotPayable, apperror.KindConflict},
		{"refunded", entity.BillingStatusRefunded, PaymentInput{Amount: dec("1"), Method: entity.PaymentMethodCash}, ErrInvoiceNotPayable, apperror.KindConflict},
		{"missing amount", entity.BillingStatusPending, PaymentInput{Method: entity.PaymentMethodCash}, ErrPaymentAmountInvalid, apperror.KindValidation},
		{"negative amount", entity.BillingStatusPending, PaymentInput{Amount: dec("-5"), Method: entity.PaymentMethodCash}, ErrPaymentAmountInvalid, apperror.KindValidation},
		{"missing method", entity.BillingStatusPending, PaymentInput{Amount: dec("5")}, ErrPaymentMethodMissing, apperror.KindValidation},
		{"unknown method", entity.BillingStatusPending, PaymentInput{Amount: dec("5"), Method: "barter"}, ErrPaymentMethodInvalid, apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaymentProcessor(clock.NewFixed(ts("2025-01-20T00:00:00Z")))
			_, err := p.ApplyPayment(invoiceOf("105", tt.status), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if apperror.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %q, want %q", apperror.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestPaymentProcessor_MergesDetails(t *testing.T) {
	p := NewPaymentProcessor(clock.NewFixed(ts("2025-01-20T00:00:00Z")))
	invoice := invoiceOf("100", entity.BillingStatusPending)
	invoice.PaymentDetails = &entity.PaymentDetails{TransactionID: "TXN-OLD", Gateway: "stripe", ReceiptURL: "https://r.test/1"}

	got, err := p.ApplyPayment(invoice, PaymentInput{Amount: dec("50"), Method: entity.PaymentMethodOnline, TransactionID: "pi_123"})
	if err != nil {
		t.Fatalf("ApplyPayment() error = %v", err)
	}
	d := got.PaymentDetails
	if d.TransactionID != "pi_123" || d.Gateway != "stripe" || d.ReceiptURL != "https://r.test/1" {
		t.Errorf("details = %+v", d)
	}
	if invoice.PaymentDetails.TransactionID != "TXN-OLD" {
		t.Error("original payment details were modified")
	}
}

func TestPaymentProcessor_SequentialPaymentsKeepInvariants(t *testing.T) {
	p := NewPaymentProcessor(clock.NewFixed(ts("2025-01-20T00:00:00Z")))
	invoice := invoiceOf("105", entity.BillingStatusPending)

	want := []entity.BillingStatus{entity.BillingStatusPending, entity.BillingStatusPending, entity.BillingStatusPaid}
	for i, amount := range []string{"30", "30", "45"} {
		next, err := p.ApplyPayment(invoice, PaymentInput{Amount: dec(amount), Method: entity.PaymentMethodCash})
		if err != nil {
			t.Fatalf("payment %d: %v", i, err)
		}
		if !next.Total.Sub(next.AmountPaid).Equal(next.Balance) {
			t.Errorf("payment %d: total - paid != balance", i)
		}
		if next.Status != want[i] {
			t.Errorf("payment %d: status = %s, want %s", i, next.Status, want[i])
		}
		invoice = next
	}
}
