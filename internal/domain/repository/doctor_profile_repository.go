package repository

import (
	"context"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	// FindActive lists profiles of active doctors, optionally narrowed by a
	// case-insensitive specialization match.
	FindActive(ctx context.Context, db *gorm.DB, specialization string, limit, offset int) ([]entity.DoctorProfile, int64, error)
}
