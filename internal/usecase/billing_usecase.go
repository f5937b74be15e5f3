package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/converter"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/apperror"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrBillingNotFound          = apperror.New(apperror.KindNotFound, "billing not found")
	ErrBillingForbidden         = apperror.New(apperror.KindAuthorization, "you do not have access to this billing")
	ErrDoctorRequired           = apperror.New(apperror.KindValidation, "doctor_id is required")
	ErrAppointmentMismatch      = apperror.New(apperror.KindValidation, "appointment does not belong to this patient and doctor")
	ErrInvalidDueDate           = apperror.New(apperror.KindValidation, "due date must not be before the invoice date")
	ErrInvalidBillingStatus     = apperror.New(apperror.KindValidation, "unknown billing status in filter")
	ErrBillingNotEditable       = apperror.New(apperror.KindConflict, "billing can no longer be edited")
	ErrStatusChangeNotAllowed   = apperror.New(apperror.KindConflict, "billing with payments cannot go back to draft")
	ErrBillingPaidCannotCancel  = apperror.New(apperror.KindConflict, "paid billing cannot be cancelled")
	ErrBillingAlreadyCancelled  = apperror.New(apperror.KindConflict, "billing is already cancelled")
	ErrInvoiceNumberUnavailable = apperror.New(apperror.KindConflict, "could not assign an invoice number, please retry")
)

type BillingUsecase interface {
	CreateBilling(ctx context.Context, req *dto.CreateBillingRequest) (*dto.BillingResponse, error)
	GetBilling(ctx context.Context, id uuid.UUID) (*dto.BillingResponse, error)
	ListBillings(ctx context.Context, req *dto.BillingListRequest) (*dto.BillingListResponse, error)
	UpdateBilling(ctx context.Context, id uuid.UUID, req *dto.UpdateBillingRequest) (*dto.BillingResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req *dto.PaymentRequest) (*dto.BillingResponse, error)
	CancelBilling(ctx context.Context, id uuid.UUID) (*dto.BillingResponse, error)
}

type billingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	transactor      repository.Transactor
	billingRepo     repository.BillingRepository
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	sequencer       service.InvoiceSequencer
	payments        *service.PaymentProcessor
	audit           service.AuditService
	clock           clock.Clock
	cfg             config.BillingConfig
}

func NewBillingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	transactor repository.Transactor,
	billingRepo repository.BillingRepository,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	sequencer service.InvoiceSequencer,
	payments *service.PaymentProcessor,
	audit service.AuditService,
	clk clock.Clock,
	cfg config.BillingConfig,
) BillingUsecase {
	return &billingUsecase{
		db:              db,
		log:             log,
		transactor:      transactor,
		billingRepo:     billingRepo,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		sequencer:       sequencer,
		payments:        payments,
		audit:           audit,
		clock:           clk,
		cfg:             cfg,
	}
}

// CreateBilling issues a new invoice.
//
// Flow:
// 1. Resolve doctor (self for doctors) and patient, check the appointment link
// 2. Validate items and compute totals
// 3. Take the next invoice number, retrying when another writer wins it
func (u *billingUsecase) CreateBilling(ctx context.Context, req *dto.CreateBillingRequest) (*dto.BillingResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var doctorID uuid.UUID
	switch {
	case current.IsDoctor():
		doctorID = current.ID
	case current.IsAdmin():
		if req.DoctorID == nil {
			return nil, ErrDoctorRequired
		}
		doctorID = *req.DoctorID
	default:
		return nil, ErrForbidden
	}

	if _, err := service.FindPatient(ctx, u.db, u.userRepo, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := service.FindDoctor(ctx, u.db, u.userRepo, doctorID); err != nil {
		return nil, err
	}
	if req.AppointmentID != nil {
		if err := u.checkAppointment(ctx, *req.AppointmentID, req.PatientID, doctorID); err != nil {
			return nil, err
		}
	}

	now := u.clock.Now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}
	dueDate := date.AddDate(0, 0, u.cfg.DefaultDueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if dueDate.Before(date) {
		return nil, ErrInvalidDueDate
	}

	status := entity.BillingStatusPending
	if req.Status != "" {
		status = entity.BillingStatus(req.Status)
	}

	items := converter.BillingItemsFromRequest(req.Items)
	if err := service.PrepareItems(items); err != nil {
		return nil, err
	}

	billing := &entity.Billing{
		PatientID:     req.PatientID,
		DoctorID:      doctorID,
		AppointmentID: req.AppointmentID,
		Date:          date,
		DueDate:       dueDate,
		Status:        status,
		Items:         items,
		Tax:           req.Tax,
		Discount:      req.Discount,
		AmountPaid:    decimal.Zero,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedBy:     current.userID(),
	}
	if err := service.Recalculate(billing, now); err != nil {
		return nil, err
	}

	if err := u.createWithNumber(ctx, billing, service.InvoicePrefix(billing.Date)); err != nil {
		return nil, err
	}

	u.log.Infof("Billing created: id=%s, invoice=%s, total=%s", billing.ID, billing.InvoiceNumber, billing.Total.StringFixed(2))
	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionBillingCreate,
		ResourceType: entity.AuditResourceBilling,
		ResourceID:   billing.ID.String(),
		Description:  "Created invoice " + billing.InvoiceNumber,
		Details: map[string]interface{}{
			"invoice_number": billing.InvoiceNumber,
			"patient_id":     billing.PatientID.String(),
			"doctor_id":      billing.DoctorID.String(),
			"total":          billing.Total.StringFixed(2),
		},
	})

	return converter.BillingToResponse(u.reload(ctx, billing)), nil
}

func (u *billingUsecase) GetBilling(ctx context.Context, id uuid.UUID) (*dto.BillingResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	billing, err := u.findAccessible(ctx, current, id)
	if err != nil {
		return nil, err
	}
	u.refreshOverdue(ctx, billing, u.clock.Now())

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionBillingRead,
		ResourceType: entity.AuditResourceBilling,
		ResourceID:   billing.ID.String(),
		Description:  "Viewed invoice " + billing.InvoiceNumber,
	})

	return converter.BillingToResponse(billing), nil
}

// ListBillings scopes the listing to the caller and brings overdue status
// up to date on the returned page.
func (u *billingUsecase) ListBillings(ctx context.Context, req *dto.BillingListRequest) (*dto.BillingListResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	limit, offset := pageWindow(req.Limit, req.Offset)
	filter := &entity.BillingFilter{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Limit:     limit,
		Offset:    offset,
	}
	switch {
	case current.IsPatient():
		filter.PatientID = current.userID()
	case current.IsDoctor():
		filter.DoctorID = current.userID()
	case !current.IsAdmin():
		return nil, ErrForbidden
	}

	for _, s := range req.Status {
		status := entity.BillingStatus(s)
		if !isKnownBillingStatus(status) {
			return nil, ErrInvalidBillingStatus
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	total, err := u.billingRepo.Count(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to count billings: %+v", err)
		return nil, err
	}
	billings, err := u.billingRepo.Find(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to find billings: %+v", err)
		return nil, err
	}

	now := u.clock.Now()
	for i := range billings {
		u.refreshOverdue(ctx, &billings[i], now)
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionBillingList,
		ResourceType: entity.AuditResourceBilling,
		Description:  "Listed invoices",
		Details:      map[string]interface{}{"count": len(billings)},
	})

	return &dto.BillingListResponse{
		Billings: converter.BillingsToResponses(billings),
		Total:    total,
	}, nil
}

// UpdateBilling edits an unpaid invoice and recomputes its totals. The write
// is retried against a fresh read when another writer bumps the version.
func (u *billingUsecase) UpdateBilling(ctx context.Context, id uuid.UUID, req *dto.UpdateBillingRequest) (*dto.BillingResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var items []entity.BillingItem
	if req.Items != nil {
		items = converter.BillingItemsFromRequest(req.Items)
		if err := service.PrepareItems(items); err != nil {
			return nil, err
		}
	}

	var updated *entity.Billing
	err = u.retryOnConflict(ctx, func(ctx context.Context) error {
		billing, err := u.findManageable(ctx, current, id)
		if err != nil {
			return err
		}
		if !billing.IsEditable() {
			return ErrBillingNotEditable
		}

		if items != nil {
			billing.Items = append([]entity.BillingItem(nil), items...)
		}
		if req.Tax != nil {
			billing.Tax = *req.Tax
		}
		if req.Discount != nil {
			billing.Discount = *req.Discount
		}
		if req.DueDate != nil {
			if req.DueDate.Before(billing.Date) {
				return ErrInvalidDueDate
			}
			billing.DueDate = *req.DueDate
		}
		if req.Notes != nil {
			billing.Notes = strings.TrimSpace(*req.Notes)
		}
		if req.Status != nil {
			next := entity.BillingStatus(*req.Status)
			if next == entity.BillingStatusDraft && billing.AmountPaid.IsPositive() {
				return ErrStatusChangeNotAllowed
			}
			billing.Status = next
		} else if billing.Status == entity.BillingStatusOverdue {
			// Re-derive from pending so a moved due date can lift it.
			billing.Status = entity.BillingStatusPending
		}

		if err := service.Recalculate(billing, u.clock.Now()); err != nil {
			return err
		}
		if err := u.billingRepo.UpdateWithVersion(ctx, u.db, billing); err != nil {
			return err
		}
		updated = billing
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionBillingUpdate,
		ResourceType: entity.AuditResourceBilling,
		ResourceID:   updated.ID.String(),
		Description:  "Updated invoice " + updated.InvoiceNumber,
		Details: map[string]interface{}{
			"status":  string(updated.Status),
			"total":   updated.Total.StringFixed(2),
			"version": updated.Version,
		},
	})

	return converter.BillingToResponse(u.reload(ctx, updated)), nil
}

// RecordPayment applies a payment and, once the invoice is settled, marks
// the linked appointment paid in the same transaction.
func (u *billingUsecase) RecordPayment(ctx context.Context, id uuid.UUID, req *dto.PaymentRequest) (*dto.BillingResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !current.IsAdmin() && !current.IsPatient() {
		return nil, ErrForbidden
	}

	input := service.PaymentInput{
		Amount:        req.Amount,
		Method:        entity.PaymentMethod(req.Method),
		TransactionID: req.TransactionID,
		CardLast4:     req.CardLast4,
		Gateway:       req.Gateway,
		ReceiptURL:    req.ReceiptURL,
	}

	var paid *entity.Billing
	err = u.retryOnConflict(ctx, func(ctx context.Context) error {
		billing, err := u.findAccessible(ctx, current, id)
		if err != nil {
			return err
		}

		updated, err := u.payments.ApplyPayment(billing, input)
		if err != nil {
			return err
		}

		err = u.transactor.WithinTransaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
			if err := u.billingRepo.UpdateWithVersion(ctx, u.txOr(tx), updated); err != nil {
				return err
			}
			if updated.IsPaid() && updated.AppointmentID != nil {
				return u.appointmentRepo.UpdatePaymentStatus(ctx, u.txOr(tx), *updated.AppointmentID, entity.PaymentStatusPaid)
			}
			return nil
		})
		if err != nil {
			return err
		}
		paid = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Payment recorded: invoice=%s, amount=%s, balance=%s", paid.InvoiceNumber, input.Amount.StringFixed(2), paid.Balance.StringFixed(2))
	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionBillingPayment,
		ResourceType: entity.AuditResourceBilling,
		ResourceID:   paid.ID.String(),
		Description:  "Recorded payment for invoice " + paid.InvoiceNumber,
		Details: map[string]interface{}{
			"amount":         input.Amount.StringFixed(2),
			"payment_method": string(input.Method),
			"transaction_id": paid.PaymentDetails.TransactionID,
			"balance":        paid.Balance.StringFixed(2),
			"status":         string(paid.Status),
		},
	})

	return converter.BillingToResponse(u.reload(ctx, paid)), nil
}

func (u *billingUsecase) CancelBilling(ctx context.Context, id uuid.UUID) (*dto.BillingResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var cancelled *entity.Billing
	err = u.retryOnConflict(ctx, func(ctx context.Context) error {
		billing, err := u.findManageable(ctx, current, id)
		if err != nil {
			return err
		}
		switch billing.Status {
		case entity.BillingStatusPaid, entity.BillingStatusRefunded:
			return ErrBillingPaidCannotCancel
		case entity.BillingStatusCancelled:
			return ErrBillingAlreadyCancelled
		}

		billing.Status = entity.BillingStatusCancelled
		if err := u.billingRepo.UpdateWithVersion(ctx, u.db, billing); err != nil {
			return err
		}
		cancelled = billing
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionBillingCancel,
		ResourceType: entity.AuditResourceBilling,
		ResourceID:   cancelled.ID.String(),
		Description:  "Cancelled invoice " + cancelled.InvoiceNumber,
	})

	return converter.BillingToResponse(u.reload(ctx, cancelled)), nil
}

// createWithNumber inserts billing under the next free number for prefix.
func (u *billingUsecase) createWithNumber(ctx context.Context, billing *entity.Billing, prefix string) error {
	attempts := u.cfg.NumberRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		number, err := u.sequencer.Next(ctx, prefix)
		if err != nil {
			u.log.Warnf("Failed to get next invoice number: %+v", err)
			return err
		}

		billing.ID = uuid.Nil
		billing.InvoiceNumber = number
		err = u.billingRepo.Create(ctx, u.db, billing)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateInvoiceNumber) {
			u.log.Warnf("Failed to create billing: %+v", err)
			return err
		}
		u.log.WithFields(logrus.Fields{
			"invoice_number": number,
			"attempt":        attempt,
		}).Warn("Invoice number already taken, retrying")
	}
	return ErrInvoiceNumberUnavailable
}

// retryOnConflict reruns fn while it fails with a stale version.
func (u *billingUsecase) retryOnConflict(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := u.cfg.UpdateRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); !errors.Is(err, repository.ErrConcurrentUpdate) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	u.log.Warnf("Giving up after %d concurrent updates: %+v", attempts, err)
	return err
}

// refreshOverdue persists an overdue transition the sweeper has not made yet.
func (u *billingUsecase) refreshOverdue(ctx context.Context, billing *entity.Billing, now time.Time) {
	if service.DeriveStatus(billing.Status, billing.Balance, billing.DueDate, now) != entity.BillingStatusOverdue ||
		billing.Status == entity.BillingStatusOverdue {
		return
	}
	affected, err := u.billingRepo.MarkOverdue(ctx, u.db, billing.ID, now)
	if err != nil {
		u.log.Warnf("Failed to mark billing %s overdue: %+v", billing.ID, err)
		return
	}
	if affected > 0 {
		billing.Status = entity.BillingStatusOverdue
		billing.Version++
	}
}

func (u *billingUsecase) checkAppointment(ctx context.Context, appointmentID, patientID, doctorID uuid.UUID) error {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}
	if appointment.PatientID != patientID || appointment.DoctorID != doctorID {
		return ErrAppointmentMismatch
	}
	return nil
}

// findAccessible allows admins and the invoice's patient or doctor.
func (u *billingUsecase) findAccessible(ctx context.Context, current actor, id uuid.UUID) (*entity.Billing, error) {
	billing, err := u.billingRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find billing %s: %+v", id, err)
		return nil, err
	}
	if billing == nil {
		return nil, ErrBillingNotFound
	}
	switch {
	case current.IsAdmin():
	case current.IsPatient() && billing.PatientID == current.ID:
	case current.IsDoctor() && billing.DoctorID == current.ID:
	default:
		return nil, ErrBillingForbidden
	}
	return billing, nil
}

// findManageable allows admins and the issuing doctor.
func (u *billingUsecase) findManageable(ctx context.Context, current actor, id uuid.UUID) (*entity.Billing, error) {
	if !current.IsAdmin() && !current.IsDoctor() {
		return nil, ErrForbidden
	}
	return u.findAccessible(ctx, current, id)
}

func (u *billingUsecase) reload(ctx context.Context, billing *entity.Billing) *entity.Billing {
	full, err := u.billingRepo.FindByID(ctx, u.db, billing.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload billing %s: %+v", billing.ID, err)
		return billing
	}
	return full
}

// txOr falls back to the base handle when the transactor hands out none.
func (u *billingUsecase) txOr(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return u.db
	}
	return tx
}

func isKnownBillingStatus(s entity.BillingStatus) bool {
	switch s {
	case entity.BillingStatusDraft, entity.BillingStatusPending, entity.BillingStatusPaid,
		entity.BillingStatusOverdue, entity.BillingStatusCancelled, entity.BillingStatusRefunded:
		return true
	}
	return false
}
