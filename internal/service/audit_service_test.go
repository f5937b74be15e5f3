package service

import (
	"context"
	"errors"
	"testing"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"
	"go-healthcare-practice/pkg/requestctx"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

// ctxRecordingAuditRepo remembers the context state seen by Create.
type ctxRecordingAuditRepo struct {
	*fake.AuditLogRepository
	ctxErr error
}

func (r *ctxRecordingAuditRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	r.ctxErr = ctx.Err()
	return r.AuditLogRepository.Create(ctx, db, log)
}

func TestAuditService_RecordCapturesClientInfo(t *testing.T) {
	repo := fake.NewAuditLogRepository()
	logger, _ := test.NewNullLogger()
	svc := NewAuditService(nil, logger, repo)

	userID := uuid.New()
	ctx := requestctx.WithClientInfo(context.Background(), requestctx.ClientInfo{
		IPAddress: "203.0.113.9",
		UserAgent: "Mozilla/5.0",
		RequestID: "req-42",
	})
	svc.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       entity.AuditActionBillingPayment,
		ResourceType: entity.AuditResourceBilling,
		ResourceID:   "b-1",
		Description:  "Payment received",
		Details:      map[string]interface{}{"amount": "50.00"},
	})

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.IPAddress != "203.0.113.9" || e.UserAgent != "Mozilla/5.0" || *e.UserID != userID {
		t.Errorf("entry = %+v", e)
	}
	if e.Metadata["amount"] != "50.00" || e.Metadata["request_id"] != "req-42" {
		t.Errorf("metadata = %+v", e.Metadata)
	}
}

func TestAuditService_RecordSwallowsFailures(t *testing.T) {
	repo := fake.NewAuditLogRepository()
	repo.Err = errors.New("disk full")
	logger, hook := test.NewNullLogger()
	svc := NewAuditService(nil, logger, repo)

	svc.Record(context.Background(), AuditEntry{Action: entity.AuditActionUserLogin, ResourceType: entity.AuditResourceUser})

	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.WarnLevel {
		t.Errorf("expected a warning to be logged, got %+v", hook.LastEntry())
	}
}

func TestAuditService_RecordSurvivesCancelledRequest(t *testing.T) {
	repo := &ctxRecordingAuditRepo{AuditLogRepository: fake.NewAuditLogRepository()}
	logger, _ := test.NewNullLogger()
	svc := NewAuditService(nil, logger, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Record(ctx, AuditEntry{Action: entity.AuditActionAppointmentRead, ResourceType: entity.AuditResourceAppointment})

	if repo.ctxErr != nil {
		t.Errorf("audit write saw ctx error %v, want a live context", repo.ctxErr)
	}
	if len(repo.Entries()) != 1 {
		t.Error("audit entry was not written")
	}
}
