package repository

import "go-healthcare-practice/pkg/apperror"

// Errors returned by store implementations regardless of backend.
var (
	ErrDuplicateRecord        = apperror.New(apperror.KindConflict, "record already exists")
	ErrDuplicateInvoiceNumber = apperror.New(apperror.KindConflict, "invoice number already assigned")
	ErrConcurrentUpdate       = apperror.New(apperror.KindConflict, "record was modified concurrently")
)
