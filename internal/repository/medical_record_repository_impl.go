package repository

import (
	"context"
	"errors"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type medicalRecordRepository struct{}

func NewMedicalRecordRepository() domainRepo.MedicalRecordRepository {
	return &medicalRecordRepository{}
}

func (r *medicalRecordRepository) Create(ctx context.Context, db *gorm.DB, record *entity.MedicalRecord) error {
	return translateError(db.WithContext(ctx).Omit("Patient", "Doctor").Create(record).Error)
}

func (r *medicalRecordRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.MedicalRecord, error) {
	var record entity.MedicalRecord
	err := db.WithContext(ctx).Preload("Patient").Preload("Doctor").Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID, limit, offset int) ([]entity.MedicalRecord, int64, error) {
	var records []entity.MedicalRecord
	var total int64

	if err := db.WithContext(ctx).Model(&entity.MedicalRecord{}).Where("patient_id = ?", patientID).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	err := db.WithContext(ctx).
		Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("visit_date DESC").
		Limit(limit).Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return records, total, nil
}
