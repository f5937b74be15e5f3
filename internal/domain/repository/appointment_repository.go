package repository

import (
	"context"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	Find(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	Count(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) (int64, error)
	// UpdateDetails writes time, type, reason, link and modifier only while
	// the row is still in status from. Returns affected rows.
	UpdateDetails(ctx context.Context, db *gorm.DB, appointment *entity.Appointment, from entity.AppointmentStatus) (int64, error)
	// SetTelehealthLink stores link only on an unlinked telehealth row still
	// in status from. Returns affected rows.
	SetTelehealthLink(ctx context.Context, db *gorm.DB, id uuid.UUID, link string, from entity.AppointmentStatus) (int64, error)
	// UpdateStatus changes status only if the row is still in one of from.
	// Returns affected rows: 0 means another writer got there first.
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, appointment *entity.Appointment) (int64, error)
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentStatus) error
}
