package service

import (
	"context"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/pkg/requestctx"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const auditWriteTimeout = 3 * time.Second

// AuditEntry describes one audited operation. Client IP and user agent are
// taken from the request context.
type AuditEntry struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Description  string
	Details      map[string]interface{}
}

// AuditService records the compliance trail. Recording never fails the
// operation being audited: write errors are logged and dropped.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	client := requestctx.ClientInfoFrom(ctx)

	var metadata entity.JSON
	if len(entry.Details) > 0 || client.RequestID != "" {
		metadata = entity.JSON{}
		for k, v := range entry.Details {
			metadata[k] = v
		}
		if client.RequestID != "" {
			metadata["request_id"] = client.RequestID
		}
	}

	auditLog := &entity.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Description:  entry.Description,
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		Metadata:     metadata,
	}

	// Detached so a client hanging up does not lose the trail entry.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.auditRepo.Create(writeCtx, s.db, auditLog); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":        entry.Action,
			"resource_type": entry.ResourceType,
			"resource_id":   entry.ResourceID,
		}).Warnf("Failed to create audit log: %+v", err)
	}
}
