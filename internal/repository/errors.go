package repository

import (
	"context"
	"errors"
	"strings"

	domainRepo "go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	invoiceNumberConstraint = "idx_billings_invoice_number"
)

// translateError maps driver errors onto the domain error taxonomy. Errors
// that are already typed pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.KindStoreUnavailable, "data store request timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, invoiceNumberConstraint) {
				return domainRepo.ErrDuplicateInvoiceNumber
			}
			return domainRepo.ErrDuplicateRecord
		case pgForeignKeyViolation:
			return apperror.Wrap(apperror.KindValidation, "referenced record does not exist", err)
		case pgCheckViolation:
			return apperror.Wrap(apperror.KindValidation, "value violates a data constraint", err)
		}
	}
	return apperror.Wrap(apperror.KindStoreUnavailable, "data store unavailable", err)
}
