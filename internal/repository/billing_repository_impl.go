package repository

import (
	"context"
	"errors"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type billingRepository struct{}

func NewBillingRepository() domainRepo.BillingRepository {
	return &billingRepository{}
}

func (r *billingRepository) Create(ctx context.Context, db *gorm.DB, billing *entity.Billing) error {
	for i := range billing.Items {
		billing.Items[i].Position = i + 1
	}
	return translateError(db.WithContext(ctx).Omit("Patient", "Doctor").Create(billing).Error)
}

func (r *billingRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Billing, error) {
	var billing entity.Billing
	err := db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Patient").
		Preload("Doctor.DoctorProfile").
		Where("id = ?", id).
		First(&billing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &billing, nil
}

func (r *billingRepository) Find(ctx context.Context, db *gorm.DB, filter *entity.BillingFilter) ([]entity.Billing, error) {
	var billings []entity.Billing
	query := applyBillingFilter(db.WithContext(ctx), filter).
		Preload("Items", orderedItems).
		Order("date DESC, invoice_number DESC")

	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := query.Find(&billings).Error; err != nil {
		return nil, translateError(err)
	}
	return billings, nil
}

func (r *billingRepository) Count(ctx context.Context, db *gorm.DB, filter *entity.BillingFilter) (int64, error) {
	var total int64
	err := applyBillingFilter(db.WithContext(ctx).Model(&entity.Billing{}), filter).Count(&total).Error
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// FindHighestInvoiceNumberWithPrefix orders by length first so that a
// sequence past 9999 still sorts after 9999.
func (r *billingRepository) FindHighestInvoiceNumberWithPrefix(ctx context.Context, db *gorm.DB, prefix string) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).Model(&entity.Billing{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("length(invoice_number) DESC, invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", translateError(err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// UpdateWithVersion rewrites the invoice and its items in one transaction,
// guarded by the version the caller read.
func (r *billingRepository) UpdateWithVersion(ctx context.Context, db *gorm.DB, billing *entity.Billing) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Billing{}).
			Where("id = ? AND version = ?", billing.ID, billing.Version).
			Updates(map[string]interface{}{
				"appointment_id":  billing.AppointmentID,
				"due_date":        billing.DueDate,
				"status":          billing.Status,
				"subtotal":        billing.Subtotal,
				"tax":             billing.Tax,
				"discount":        billing.Discount,
				"total":           billing.Total,
				"amount_paid":     billing.AmountPaid,
				"balance":         billing.Balance,
				"payment_method":  billing.PaymentMethod,
				"payment_details": billing.PaymentDetails,
				"notes":           billing.Notes,
				"version":         gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainRepo.ErrConcurrentUpdate
		}

		if err := tx.Where("billing_id = ?", billing.ID).Delete(&entity.BillingItem{}).Error; err != nil {
			return err
		}
		for i := range billing.Items {
			billing.Items[i].ID = 0
			billing.Items[i].BillingID = billing.ID
			billing.Items[i].Position = i + 1
		}
		if len(billing.Items) > 0 {
			if err := tx.Create(&billing.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError(err)
	}
	billing.Version++
	return nil
}

func (r *billingRepository) FindOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]entity.Billing, error) {
	var billings []entity.Billing
	err := db.WithContext(ctx).
		Where("status = ? AND due_date < ? AND balance > 0", entity.BillingStatusPending, now).
		Order("due_date ASC").
		Limit(limit).
		Find(&billings).Error
	if err != nil {
		return nil, translateError(err)
	}
	return billings, nil
}

// MarkOverdue re-checks every condition in the WHERE clause so a payment
// landing between the scan and this update is never overwritten.
func (r *billingRepository) MarkOverdue(ctx context.Context, db *gorm.DB, id uuid.UUID, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Billing{}).
		Where("id = ? AND status = ? AND due_date < ? AND balance > 0", id, entity.BillingStatusPending, now).
		Updates(map[string]interface{}{
			"status":  entity.BillingStatusOverdue,
			"version": gorm.Expr("version + 1"),
		})
	return result.RowsAffected, translateError(result.Error)
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func applyBillingFilter(query *gorm.DB, filter *entity.BillingFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	return query
}
