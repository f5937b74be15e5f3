package service

import (
	"errors"
	"fmt"

	"go-healthcare-practice/pkg/apperror"
)

var (
	ErrDoctorNotFound  = apperror.New(apperror.KindNotFound, "doctor not found")
	ErrPatientNotFound = apperror.New(apperror.KindNotFound, "patient not found")

	ErrInvoiceAlreadyPaid   = apperror.New(apperror.KindConflict, "invoice is already paid")
	ErrInvoiceNotPayable    = apperror.New(apperror.KindConflict, "invoice does not accept payments in its current status")
	ErrPaymentAmountInvalid = apperror.New(apperror.KindValidation, "payment amount is required and must be greater than zero")
	ErrPaymentMethodMissing = apperror.New(apperror.KindValidation, "payment method is required")
	ErrPaymentMethodInvalid = apperror.New(apperror.KindValidation, "payment method is not supported")

	ErrInvalidInvoiceNumber = apperror.New(apperror.KindInternal, "malformed invoice number")
)

// storeError keeps typed errors intact and marks anything else as a
// retryable store failure.
func storeError(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperror.Wrap(apperror.KindStoreUnavailable, op, err)
}
