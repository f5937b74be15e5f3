package repository

import (
	"context"

	"go-healthcare-practice/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error
	Find(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, error)
	Count(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error)
}
