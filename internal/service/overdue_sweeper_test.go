package service

import (
	"context"
	"errors"
	"testing"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"
	"go-healthcare-practice/pkg/apperror"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
)

func billingWith(number string, status entity.BillingStatus, due, balance string) entity.Billing {
	return entity.Billing{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Status:        status,
		DueDate:       ts(due),
		Total:         dec(balance),
		Balance:       dec(balance),
	}
}

func TestOverdueSweeper_Sweep(t *testing.T) {
	eligible := billingWith("INV-2501-0001", entity.BillingStatusPending, "2025-01-10T00:00:00Z", "50")
	notDue := billingWith("INV-2501-0002", entity.BillingStatusPending, "2025-02-10T00:00:00Z", "50")
	settled := billingWith("INV-2501-0003", entity.BillingStatusPending, "2025-01-10T00:00:00Z", "0")
	paid := billingWith("INV-2501-0004", entity.BillingStatusPaid, "2025-01-10T00:00:00Z", "0")
	draft := billingWith("INV-2501-0005", entity.BillingStatusDraft, "2025-01-10T00:00:00Z", "50")

	billings := fake.NewBillingRepository(eligible, notDue, settled, paid, draft)
	audits := fake.NewAuditLogRepository()
	logger, _ := test.NewNullLogger()
	sweeper := NewOverdueSweeper(nil, logger, billings, NewAuditService(nil, logger, audits), clock.NewFixed(ts("2025-01-15T00:00:00Z")))

	marked, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if marked != 1 {
		t.Errorf("marked = %d, want 1", marked)
	}

	want := map[uuid.UUID]entity.BillingStatus{
		eligible.ID: entity.BillingStatusOverdue,
		notDue.ID:   entity.BillingStatusPending,
		settled.ID:  entity.BillingStatusPending,
		paid.ID:     entity.BillingStatusPaid,
		draft.ID:    entity.BillingStatusDraft,
	}
	for id, status := range want {
		if got := billings.Get(id).Status; got != status {
			t.Errorf("%s status = %s, want %s", billings.Get(id).InvoiceNumber, got, status)
		}
	}

	entries := audits.Entries()
	if len(entries) != 1 || entries[0].Action != entity.AuditActionBillingOverdue || entries[0].ResourceID != eligible.ID.String() {
		t.Errorf("audit entries = %+v", entries)
	}

	again, err := sweeper.Sweep(context.Background())
	if err != nil || again != 0 {
		t.Errorf("second Sweep() = %d, %v; want 0, nil", again, err)
	}
}

func TestOverdueSweeper_WorksThroughBatches(t *testing.T) {
	var seed []entity.Billing
	for i := 0; i < 5; i++ {
		seed = append(seed, billingWith(FormatInvoiceNumber("INV-2501-", i+1), entity.BillingStatusPending, "2025-01-01T00:00:00Z", "10"))
	}
	billings := fake.NewBillingRepository(seed...)
	logger, _ := test.NewNullLogger()
	sweeper := NewOverdueSweeper(nil, logger, billings, NewAuditService(nil, logger, fake.NewAuditLogRepository()), clock.NewFixed(ts("2025-01-15T00:00:00Z")))
	sweeper.batchSize = 2

	marked, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if marked != 5 {
		t.Errorf("marked = %d, want 5", marked)
	}
}

func TestOverdueSweeper_StoreFailure(t *testing.T) {
	billings := fake.NewBillingRepository()
	billings.Err = errors.New("connection reset by peer")
	logger, _ := test.NewNullLogger()
	sweeper := NewOverdueSweeper(nil, logger, billings, NewAuditService(nil, logger, fake.NewAuditLogRepository()), clock.NewFixed(ts("2025-01-15T00:00:00Z")))

	_, err := sweeper.Sweep(context.Background())
	if apperror.KindOf(err) != apperror.KindStoreUnavailable {
		t.Errorf("error = %v, want store unavailable", err)
	}
}
