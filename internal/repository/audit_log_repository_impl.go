package repository

import (
	"context"
	"errors"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	return translateError(db.WithContext(ctx).Omit("User").Create(log).Error)
}

func (r *auditLogRepository) Find(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	query := applyAuditLogFilter(db.WithContext(ctx), filter).
		Preload("User.Role").
		Order("created_at DESC, id DESC")
	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, translateError(err)
	}
	return logs, nil
}

func (r *auditLogRepository) Count(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter) (int64, error) {
	var total int64
	if err := applyAuditLogFilter(db.WithContext(ctx).Model(&entity.AuditLog{}), filter).Count(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

func (r *auditLogRepository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.WithContext(ctx).Preload("User.Role").Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &log, nil
}

func applyAuditLogFilter(query *gorm.DB, filter *entity.AuditLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	return query
}
