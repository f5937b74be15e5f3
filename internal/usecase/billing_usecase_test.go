package usecase

import (
	"errors"
	"testing"
	"time"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func billingRequest(patientID uuid.UUID) *dto.CreateBillingRequest {
	return &dto.CreateBillingRequest{
		PatientID: patientID,
		Items: []dto.BillingItemRequest{
			{Service: "Consultation", Quantity: 2, UnitPrice: money("50.00"), Discount: money("10.00"), Tax: money("5.00")},
			{Service: "ECG", Quantity: 1, UnitPrice: money("30.00")},
		},
		Tax:      money("10.00"),
		Discount: money("5.00"),
	}
}

// seedBilling stores an invoice of total 100.00 with amountPaid already paid.
func (f *fixture) seedBilling(status entity.BillingStatus, due time.Time, amountPaid string, appointmentID *uuid.UUID) entity.Billing {
	paid := money(amountPaid)
	b := entity.Billing{
		ID:            uuid.New(),
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentID: appointmentID,
		InvoiceNumber: "INV-2602-0001",
		Date:          ts("2026-02-01T09:00:00Z"),
		DueDate:       due,
		Status:        status,
		Items: []entity.BillingItem{
			{Service: "Consultation", Quantity: 1, UnitPrice: money("100.00"), Total: money("100.00")},
		},
		Subtotal:   money("100.00"),
		Total:      money("100.00"),
		AmountPaid: paid,
		Balance:    money("100.00").Sub(paid),
		Version:    1,
	}
	f.billings.Put(b)
	return b
}

func TestBillingUsecase_CreateComputesTotalsAndNumber(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	ctx := asUser(f.doctorID, entity.RoleIDDoctor)

	resp, err := uc.CreateBilling(ctx, billingRequest(f.patientID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if resp.InvoiceNumber != "INV-2603-0001" {
		t.Fatalf("unexpected invoice number %s", resp.InvoiceNumber)
	}
	if resp.DoctorID != f.doctorID {
		t.Fatalf("doctor should bill as themselves")
	}
	if !resp.Items[0].Total.Equal(money("95.00")) || !resp.Items[1].Total.Equal(money("30.00")) {
		t.Fatalf("unexpected item totals %s, %s", resp.Items[0].Total, resp.Items[1].Total)
	}
	if !resp.Subtotal.Equal(money("125.00")) || !resp.Total.Equal(money("130.00")) || !resp.Balance.Equal(money("130.00")) {
		t.Fatalf("unexpected totals subtotal=%s total=%s balance=%s", resp.Subtotal, resp.Total, resp.Balance)
	}
	if resp.Status != string(entity.BillingStatusPending) {
		t.Fatalf("expected pending, got %s", resp.Status)
	}
	if !resp.DueDate.Equal(testNow.AddDate(0, 0, 30)) {
		t.Fatalf("expected default due date, got %s", resp.DueDate)
	}

	second, err := uc.CreateBilling(ctx, billingRequest(f.patientID))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.InvoiceNumber != "INV-2603-0002" {
		t.Fatalf("expected the next sequence number, got %s", second.InvoiceNumber)
	}
}

func TestBillingUsecase_NumberFollowsInvoiceDateInUTC(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	ctx := asUser(f.doctorID, entity.RoleIDDoctor)

	// Local midnight has passed into April, UTC is still in March.
	f.clock.At = time.Date(2026, time.April, 1, 3, 0, 0, 0, time.FixedZone("WIB", 7*60*60))
	resp, err := uc.CreateBilling(ctx, billingRequest(f.patientID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.InvoiceNumber != "INV-2603-0001" {
		t.Fatalf("expected a March number, got %s", resp.InvoiceNumber)
	}

	backdated := billingRequest(f.patientID)
	date := ts("2026-02-20T10:00:00Z")
	backdated.Date = &date
	resp, err = uc.CreateBilling(ctx, backdated)
	if err != nil {
		t.Fatalf("create backdated: %v", err)
	}
	if resp.InvoiceNumber != "INV-2602-0001" {
		t.Fatalf("expected the invoice date's month, got %s", resp.InvoiceNumber)
	}
}

func TestBillingUsecase_CreateRetriesTakenNumber(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	f.billings.DuplicateCreates = 2

	resp, err := uc.CreateBilling(asUser(f.doctorID, entity.RoleIDDoctor), billingRequest(f.patientID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.billings.CreateCalls != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", f.billings.CreateCalls)
	}
	if resp.InvoiceNumber == "" {
		t.Fatalf("invoice number missing")
	}
}

func TestBillingUsecase_CreateGivesUpAfterRetries(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	f.billings.DuplicateCreates = 10

	_, err := uc.CreateBilling(asUser(f.doctorID, entity.RoleIDDoctor), billingRequest(f.patientID))
	if !errors.Is(err, ErrInvoiceNumberUnavailable) {
		t.Fatalf("expected ErrInvoiceNumberUnavailable, got %v", err)
	}
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Fatalf("exhausted numbering should be a retryable conflict")
	}
}

func TestBillingUsecase_CreateRejections(t *testing.T) {
	tests := []struct {
		name     string
		role     int
		modify   func(f *fixture, req *dto.CreateBillingRequest)
		wantErr  error
		wantKind apperror.Kind
	}{
		{
			name:    "admin must name the doctor",
			role:    entity.RoleIDAdmin,
			wantErr: ErrDoctorRequired,
		},
		{
			name:    "patients cannot issue invoices",
			role:    entity.RoleIDPatient,
			wantErr: ErrForbidden,
		},
		{
			name: "mismatched item total",
			role: entity.RoleIDDoctor,
			modify: func(f *fixture, req *dto.CreateBillingRequest) {
				req.Items[1].Total = money("31.00")
			},
			wantKind: apperror.KindValidation,
		},
		{
			name: "negative unit price",
			role: entity.RoleIDDoctor,
			modify: func(f *fixture, req *dto.CreateBillingRequest) {
				req.Items[0].UnitPrice = money("-1")
			},
			wantKind: apperror.KindValidation,
		},
		{
			name: "due date before invoice date",
			role: entity.RoleIDDoctor,
			modify: func(f *fixture, req *dto.CreateBillingRequest) {
				due := testNow.AddDate(0, 0, -1)
				req.DueDate = &due
			},
			wantErr: ErrInvalidDueDate,
		},
		{
			name: "appointment with another patient",
			role: entity.RoleIDDoctor,
			modify: func(f *fixture, req *dto.CreateBillingRequest) {
				other := f.addPatient("other")
				req.PatientID = other
				appt := f.seedAppointment("2026-03-03T10:00:00Z", 30, entity.AppointmentStatusCompleted, entity.AppointmentTypeInPerson)
				req.AppointmentID = &appt.ID
			},
			wantErr: ErrAppointmentMismatch,
		},
		{
			name: "unknown patient",
			role: entity.RoleIDDoctor,
			modify: func(f *fixture, req *dto.CreateBillingRequest) {
				req.PatientID = uuid.New()
			},
			wantErr: service.ErrPatientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			uc := f.billingUsecase()
			req := billingRequest(f.patientID)
			if tt.modify != nil {
				tt.modify(f, req)
			}
			actorID := map[int]uuid.UUID{
				entity.RoleIDAdmin:   f.adminID,
				entity.RoleIDDoctor:  f.doctorID,
				entity.RoleIDPatient: f.patientID,
			}[tt.role]

			_, err := uc.CreateBilling(asUser(actorID, tt.role), req)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantKind != "" && apperror.KindOf(err) != tt.wantKind {
				t.Fatalf("expected kind %s, got %s (%v)", tt.wantKind, apperror.KindOf(err), err)
			}
			if f.billings.CreateCalls != 0 {
				t.Fatalf("rejected invoice must not be inserted")
			}
		})
	}
}

func TestBillingUsecase_RecordPayment(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	appt := f.seedAppointment("2026-03-03T10:00:00Z", 30, entity.AppointmentStatusCompleted, entity.AppointmentTypeInPerson)
	b := f.seedBilling(entity.BillingStatusPending, ts("2026-03-10T00:00:00Z"), "0", &appt.ID)
	ctx := asUser(f.patientID, entity.RoleIDPatient)

	partial, err := uc.RecordPayment(ctx, b.ID, &dto.PaymentRequest{Amount: money("40.00"), Method: "card", CardLast4: "4242"})
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if partial.Status != string(entity.BillingStatusPending) || !partial.Balance.Equal(money("60.00")) {
		t.Fatalf("unexpected state after partial payment: %s balance=%s", partial.Status, partial.Balance)
	}
	if stored, _ := f.appointments.Get(appt.ID); stored.PaymentStatus != entity.PaymentStatusPending {
		t.Fatalf("appointment must stay unpaid until the balance is settled")
	}

	full, err := uc.RecordPayment(ctx, b.ID, &dto.PaymentRequest{Amount: money("60.00"), Method: "cash", TransactionID: "RCPT-77"})
	if err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if full.Status != string(entity.BillingStatusPaid) || !full.Balance.IsZero() {
		t.Fatalf("expected paid with zero balance, got %s balance=%s", full.Status, full.Balance)
	}
	if full.PaymentDetails == nil || full.PaymentDetails.TransactionID != "RCPT-77" || full.PaymentDetails.CardLast4 != "4242" {
		t.Fatalf("unexpected payment details %+v", full.PaymentDetails)
	}
	if stored, _ := f.appointments.Get(appt.ID); stored.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("linked appointment should be marked paid")
	}
	if f.transactor.Calls != 2 {
		t.Fatalf("expected each payment in its own transaction, got %d", f.transactor.Calls)
	}

	_, err = uc.RecordPayment(ctx, b.ID, &dto.PaymentRequest{Amount: money("1.00"), Method: "cash"})
	if !errors.Is(err, service.ErrInvoiceAlreadyPaid) {
		t.Fatalf("expected ErrInvoiceAlreadyPaid, got %v", err)
	}
}

func TestBillingUsecase_RecordPaymentRetriesStaleVersion(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	b := f.seedBilling(entity.BillingStatusPending, ts("2026-03-10T00:00:00Z"), "0", nil)
	f.billings.ConcurrentUpdates = 1

	resp, err := uc.RecordPayment(asUser(f.adminID, entity.RoleIDAdmin), b.ID, &dto.PaymentRequest{Amount: money("25.00"), Method: "online"})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if f.billings.UpdateCalls != 2 {
		t.Fatalf("expected one retry, got %d update calls", f.billings.UpdateCalls)
	}
	if !resp.AmountPaid.Equal(money("25.00")) {
		t.Fatalf("payment must be applied exactly once, amount paid %s", resp.AmountPaid)
	}
}

func TestBillingUsecase_RecordPaymentAccess(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	b := f.seedBilling(entity.BillingStatusPending, ts("2026-03-10T00:00:00Z"), "0", nil)
	req := &dto.PaymentRequest{Amount: money("10.00"), Method: "cash"}

	if _, err := uc.RecordPayment(asUser(f.doctorID, entity.RoleIDDoctor), b.ID, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("doctors do not take payments, got %v", err)
	}
	stranger := f.addPatient("stranger")
	if _, err := uc.RecordPayment(asUser(stranger, entity.RoleIDPatient), b.ID, req); !errors.Is(err, ErrBillingForbidden) {
		t.Fatalf("expected ErrBillingForbidden, got %v", err)
	}
	bad := &dto.PaymentRequest{Amount: money("0"), Method: "cash"}
	if _, err := uc.RecordPayment(asUser(f.patientID, entity.RoleIDPatient), b.ID, bad); !errors.Is(err, service.ErrPaymentAmountInvalid) {
		t.Fatalf("expected ErrPaymentAmountInvalid, got %v", err)
	}
}

func TestBillingUsecase_ReadMarksOverdue(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	b := f.seedBilling(entity.BillingStatusPending, ts("2026-03-01T00:00:00Z"), "20.00", nil)

	resp, err := uc.GetBilling(asUser(f.patientID, entity.RoleIDPatient), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Status != string(entity.BillingStatusOverdue) {
		t.Fatalf("expected overdue, got %s", resp.Status)
	}
	if stored := f.billings.Get(b.ID); stored.Status != entity.BillingStatusOverdue {
		t.Fatalf("overdue status should be persisted, got %s", stored.Status)
	}

	paid, err := uc.RecordPayment(asUser(f.patientID, entity.RoleIDPatient), b.ID, &dto.PaymentRequest{Amount: money("30.00"), Method: "card"})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if paid.Status != string(entity.BillingStatusPending) {
		t.Fatalf("partial payment on overdue invoice should reopen it, got %s", paid.Status)
	}
}

func TestBillingUsecase_UpdateRecomputes(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	b := f.seedBilling(entity.BillingStatusPending, ts("2026-03-10T00:00:00Z"), "10.00", nil)
	ctx := asUser(f.doctorID, entity.RoleIDDoctor)

	discount := money("20.00")
	resp, err := uc.UpdateBilling(ctx, b.ID, &dto.UpdateBillingRequest{
		Items: []dto.BillingItemRequest{
			{Service: "Consultation", Quantity: 3, UnitPrice: money("40.00")},
		},
		Discount: &discount,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !resp.Total.Equal(money("100.00")) || !resp.Balance.Equal(money("90.00")) {
		t.Fatalf("unexpected totals total=%s balance=%s", resp.Total, resp.Balance)
	}
	if resp.Version != 2 {
		t.Fatalf("expected version 2, got %d", resp.Version)
	}

	draft := string(entity.BillingStatusDraft)
	if _, err := uc.UpdateBilling(ctx, b.ID, &dto.UpdateBillingRequest{Status: &draft}); !errors.Is(err, ErrStatusChangeNotAllowed) {
		t.Fatalf("expected ErrStatusChangeNotAllowed, got %v", err)
	}
}

func TestBillingUsecase_UpdateAndCancelRules(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	paid := f.seedBilling(entity.BillingStatusPaid, ts("2026-03-10T00:00:00Z"), "100.00", nil)
	ctx := asUser(f.adminID, entity.RoleIDAdmin)

	notes := "late fee waived"
	if _, err := uc.UpdateBilling(ctx, paid.ID, &dto.UpdateBillingRequest{Notes: &notes}); !errors.Is(err, ErrBillingNotEditable) {
		t.Fatalf("expected ErrBillingNotEditable, got %v", err)
	}
	if _, err := uc.CancelBilling(ctx, paid.ID); !errors.Is(err, ErrBillingPaidCannotCancel) {
		t.Fatalf("expected ErrBillingPaidCannotCancel, got %v", err)
	}

	open := f.seedBilling(entity.BillingStatusPending, ts("2026-03-10T00:00:00Z"), "0", nil)
	resp, err := uc.CancelBilling(ctx, open.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if resp.Status != string(entity.BillingStatusCancelled) {
		t.Fatalf("expected cancelled, got %s", resp.Status)
	}
	if _, err := uc.CancelBilling(ctx, open.ID); !errors.Is(err, ErrBillingAlreadyCancelled) {
		t.Fatalf("expected ErrBillingAlreadyCancelled, got %v", err)
	}

	other := f.addDoctor("Dr. Other", "LIC-777")
	if _, err := uc.CancelBilling(asUser(other, entity.RoleIDDoctor), paid.ID); !errors.Is(err, ErrBillingForbidden) {
		t.Fatalf("expected ErrBillingForbidden, got %v", err)
	}
}

func TestBillingUsecase_ListIsScoped(t *testing.T) {
	f := newFixture()
	uc := f.billingUsecase()
	f.seedBilling(entity.BillingStatusPending, ts("2026-03-10T00:00:00Z"), "0", nil)
	f.seedBilling(entity.BillingStatusPending, ts("2026-02-20T00:00:00Z"), "0", nil)

	other := f.addPatient("other")
	f.billings.Put(entity.Billing{
		ID:            uuid.New(),
		PatientID:     other,
		DoctorID:      f.doctorID,
		InvoiceNumber: "INV-2602-0009",
		Date:          ts("2026-02-01T09:00:00Z"),
		DueDate:       ts("2026-03-10T00:00:00Z"),
		Status:        entity.BillingStatusDraft,
		Total:         money("10.00"),
		Balance:       money("10.00"),
		Version:       1,
	})

	mine, err := uc.ListBillings(asUser(f.patientID, entity.RoleIDPatient), &dto.BillingListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if mine.Total != 2 {
		t.Fatalf("patient should see 2 invoices, got %d", mine.Total)
	}
	overdue := 0
	for _, b := range mine.Billings {
		if b.Status == string(entity.BillingStatusOverdue) {
			overdue++
		}
	}
	if overdue != 1 {
		t.Fatalf("expected one invoice flipped to overdue, got %d", overdue)
	}

	doctorView, err := uc.ListBillings(asUser(f.doctorID, entity.RoleIDDoctor), &dto.BillingListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if doctorView.Total != 3 {
		t.Fatalf("doctor should see every invoice they issued, got %d", doctorView.Total)
	}

	if _, err := uc.ListBillings(asUser(f.adminID, entity.RoleIDAdmin), &dto.BillingListRequest{Status: []string{"unpaid"}}); !errors.Is(err, ErrInvalidBillingStatus) {
		t.Fatalf("expected ErrInvalidBillingStatus, got %v", err)
	}
}
