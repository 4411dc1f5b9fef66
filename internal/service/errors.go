package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrSweetNotFound       = errors.New("sweet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRequestNotFound     = errors.New("request not found")

	ErrTransactionAccessDenied = errors.New("access denied")
	ErrEmptyBasket         = ValidationError{Message: "No items provided for purchase"}
)

// ValidationError reports malformed input. Nothing has been written when it is returned.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...interface{}) error {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the sweet a basket line referred to.
type NotFoundError struct {
	SweetID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Product not found: %s", e.SweetID)
}

func (e *NotFoundError) Unwrap() error { return ErrSweetNotFound }

// InsufficientStockError aborts the whole checkout it occurred in.
type InsufficientStockError struct {
	SweetID   uuid.UUID
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", e.Name, e.Available, e.Requested)
}

func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrSweetNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrRequestNotFound)
}

func IsInsufficientStock(err error) bool {
	var s *InsufficientStockError
	return errors.As(err, &s)
}

// IsBusiness reports whether err is a rule violation the caller can act on,
// as opposed to an infrastructure failure.
func IsBusiness(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsInsufficientStock(err)
}
