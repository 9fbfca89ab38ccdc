package lending

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Service matches exactly one of these
// with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrInfrastructure   = errors.New("infrastructure failure")
)

// Store-level signals. Store implementations return these so the service can
// tell a lost race apart from a broken connection.
var (
	ErrStaleBook           = errors.New("book was modified concurrently")
	ErrDuplicateActiveLoan = errors.New("active loan already exists")
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeBookNotFound        Code = "BOOK_NOT_FOUND"
	CodeRecordNotFound      Code = "RECORD_NOT_FOUND"
	CodeBookAlreadyBorrowed Code = "BOOK_ALREADY_BORROWED"
	CodeActiveLoanExists    Code = "ACTIVE_LOAN_EXISTS"
	CodeNoActiveLoan        Code = "NO_ACTIVE_LOAN"
	CodeInvalidBorrower     Code = "INVALID_BORROWER"
	CodeConcurrentUpdate    Code = "CONCURRENT_UPDATE"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeStoreUnavailable    Code = "STORE_UNAVAILABLE"
)

// Error is the typed failure returned by lending operations.
type Error struct {
	Kind    error
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Retryable is true only for infrastructure failures; every other kind will
// fail the same way again.
func (e *Error) Retryable() bool {
	return e.Kind == ErrInfrastructure
}

func newError(kind error, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrValidation, CodeValidationFailed, format, args...)
}

func infrastructureError(err error) *Error {
	return &Error{Kind: ErrInfrastructure, Code: CodeStoreUnavailable, Message: "store unavailable", Err: err}
}

func errBookNotFound(id uint) *Error {
	return newError(ErrNotFound, CodeBookNotFound, "book %d not found", id)
}

func errRecordNotFound(id string) *Error {
	return newError(ErrNotFound, CodeRecordNotFound, "borrow record %s not found", id)
}

func errBookAlreadyBorrowed() *Error {
	return newError(ErrConflict, CodeBookAlreadyBorrowed, "book already borrowed")
}

func errActiveLoanExists() *Error {
	return newError(ErrConflict, CodeActiveLoanExists, "borrower already has an active loan")
}

func errNoActiveLoan() *Error {
	return newError(ErrConflict, CodeNoActiveLoan, "no active loan found for this borrower and book")
}

func errConcurrentUpdate() *Error {
	return newError(ErrConflict, CodeConcurrentUpdate, "book was modified concurrently, retry the request")
}

// asError maps anything that is not already an *Error to an infrastructure
// failure.
func asError(err error) error {
	if err == nil {
		return nil
	}
	var lendErr *Error
	if errors.As(err, &lendErr) {
		return lendErr
	}
	return infrastructureError(err)
}

// ErrorCode extracts the Code from err, or "" if err is not a lending error.
func ErrorCode(err error) Code {
	var lendErr *Error
	if errors.As(err, &lendErr) {
		return lendErr.Code
	}
	return ""
}
