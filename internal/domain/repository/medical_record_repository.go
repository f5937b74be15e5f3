package repository

import (
	"context"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicalRecordRepository interface {
	Create(ctx context.Context, db *gorm.DB, record *entity.MedicalRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.MedicalRecord, error)
	FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID, limit, offset int) ([]entity.MedicalRecord, int64, error)
}
