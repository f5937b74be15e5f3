package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the delivery layer can pick a status code.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindAuthorization    Kind = "authorization"
	KindStoreUnavailable Kind = "store_unavailable"
	KindInternal         Kind = "internal"
)

// Error is a typed application error. Sentinels built with New are compared by
// identity, so errors.Is keeps working after wrapping with fmt.Errorf("%w").
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed if sent again.
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindStoreUnavailable
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the human message of the first *Error in err's chain.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

// IsRetryable reports whether err is a retryable application error.
func IsRetryable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}
