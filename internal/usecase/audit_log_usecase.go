package usecase

import (
	"context"

	"go-healthcare-practice/internal/converter"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAuditLogNotFound = apperror.New(apperror.KindNotFound, "audit log not found")
)

type AuditLogUsecase interface {
	ListAuditLogs(ctx context.Context, req *dto.AuditLogListRequest) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) ListAuditLogs(ctx context.Context, req *dto.AuditLogListRequest) (*dto.AuditLogListResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !current.IsAdmin() {
		return nil, ErrForbidden
	}

	limit, offset := pageWindow(req.Limit, req.Offset)
	filter := &entity.AuditLogFilter{
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Limit:        limit,
		Offset:       offset,
	}

	total, err := u.auditLogRepo.Count(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to count audit logs: %+v", err)
		return nil, err
	}
	logs, err := u.auditLogRepo.Find(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !current.IsAdmin() {
		return nil, ErrForbidden
	}

	auditLog, err := u.auditLogRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
