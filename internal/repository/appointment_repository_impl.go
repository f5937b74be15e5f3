package repository

import (
	"context"
	"errors"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return translateError(db.WithContext(ctx).Omit("Patient", "Doctor").Create(appointment).Error)
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor.DoctorProfile").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Find(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := applyAppointmentFilter(db.WithContext(ctx), filter)

	order := "start_time ASC"
	if filter != nil && filter.NewestFirst {
		order = "start_time DESC"
	}
	query = query.Order(order)

	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := query.Find(&appointments).Error; err != nil {
		return nil, translateError(err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Count(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) (int64, error) {
	var total int64
	err := applyAppointmentFilter(db.WithContext(ctx).Model(&entity.Appointment{}), filter).Count(&total).Error
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

func (r *appointmentRepository) UpdateDetails(ctx context.Context, db *gorm.DB, appointment *entity.Appointment, from entity.AppointmentStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, from).
		Updates(map[string]interface{}{
			"start_time":       appointment.StartTime,
			"end_time":         appointment.EndTime,
			"type":             appointment.Type,
			"reason":           appointment.Reason,
			"telehealth_link":  appointment.TelehealthLink,
			"last_modified_by": appointment.LastModifiedBy,
		})
	return result.RowsAffected, translateError(result.Error)
}

func (r *appointmentRepository) SetTelehealthLink(ctx context.Context, db *gorm.DB, id uuid.UUID, link string, from entity.AppointmentStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ? AND type = ? AND telehealth_link IS NULL", id, from, entity.AppointmentTypeTelehealth).
		Update("telehealth_link", link)
	return result.RowsAffected, translateError(result.Error)
}

// UpdateStatus atomically moves the appointment out of one of the expected
// states, so two concurrent transitions cannot both succeed.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, appointment *entity.Appointment) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":              appointment.Status,
			"cancellation_reason": appointment.CancellationReason,
			"last_modified_by":    appointment.LastModifiedBy,
		})
	return result.RowsAffected, translateError(result.Error)
}

func (r *appointmentRepository) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentStatus) error {
	return translateError(db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("payment_status", status).Error)
}

func applyAppointmentFilter(query *gorm.DB, filter *entity.AppointmentFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.ExcludeStatuses) > 0 {
		query = query.Where("status NOT IN ?", filter.ExcludeStatuses)
	}
	if filter.ExcludeID != nil {
		query = query.Where("id <> ?", *filter.ExcludeID)
	}
	if filter.StartsBefore != nil {
		query = query.Where("start_time < ?", *filter.StartsBefore)
	}
	if filter.EndsAfter != nil {
		query = query.Where("end_time > ?", *filter.EndsAfter)
	}
	if filter.StartFrom != nil {
		query = query.Where("start_time >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("start_time < ?", *filter.StartTo)
	}
	return query
}
