package repository

import (
	"context"
	"time"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillingRepository interface {
	// Create inserts the invoice with its items. A taken invoice number
	// yields ErrDuplicateInvoiceNumber.
	Create(ctx context.Context, db *gorm.DB, billing *entity.Billing) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Billing, error)
	Find(ctx context.Context, db *gorm.DB, filter *entity.BillingFilter) ([]entity.Billing, error)
	Count(ctx context.Context, db *gorm.DB, filter *entity.BillingFilter) (int64, error)
	// FindHighestInvoiceNumberWithPrefix returns "" when no invoice uses prefix.
	FindHighestInvoiceNumberWithPrefix(ctx context.Context, db *gorm.DB, prefix string) (string, error)
	// UpdateWithVersion writes billing (items replaced) only if the stored
	// version still equals billing.Version, then bumps billing.Version.
	// A stale version yields ErrConcurrentUpdate.
	UpdateWithVersion(ctx context.Context, db *gorm.DB, billing *entity.Billing) error
	FindOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]entity.Billing, error)
	// MarkOverdue flips a pending, past-due, unpaid invoice to overdue.
	// Returns affected rows.
	MarkOverdue(ctx context.Context, db *gorm.DB, id uuid.UUID, now time.Time) (int64, error)
}
