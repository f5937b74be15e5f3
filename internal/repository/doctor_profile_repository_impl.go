package repository

import (
	"context"
	"errors"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return translateError(db.WithContext(ctx).Omit("User").Create(profile).Error)
}

func (r *doctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.WithContext(ctx).Preload("User").Where("user_id = ?", doctorID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &profile, nil
}

// FindActive returns profiles only for doctors whose user account is active.
func (r *doctorProfileRepository) FindActive(ctx context.Context, db *gorm.DB, specialization string, limit, offset int) ([]entity.DoctorProfile, int64, error) {
	scope := func() *gorm.DB {
		query := db.WithContext(ctx).Model(&entity.DoctorProfile{}).
			Joins("JOIN users ON users.id = doctor_profiles.user_id").
			Where("users.is_active = ?", true)
		if specialization != "" {
			query = query.Where("doctor_profiles.specialization ILIKE ?", "%"+specialization+"%")
		}
		return query
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var profiles []entity.DoctorProfile
	err := scope().
		Preload("User").
		Order("users.full_name ASC").
		Limit(limit).Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return profiles, total, nil
}
