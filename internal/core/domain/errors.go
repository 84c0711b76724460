package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so
// callers can classify failures with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrForbidden       = errors.New("access forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStorage         = errors.New("storage failure")
	ErrInvalidInput    = errors.New("invalid input")
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrBillNotFound       = fmt.Errorf("bill %w", ErrNotFound)
	ErrUserExists         = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrMeterExists        = fmt.Errorf("%w: meter number already registered", ErrConflict)
	ErrBillAlreadyPaid    = fmt.Errorf("%w: bill is already paid", ErrInvalidState)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrTooManyAttempts    = fmt.Errorf("%w: too many failed login attempts", ErrUnauthenticated)
	ErrNotCustomer        = fmt.Errorf("%w: user is not a customer", ErrInvalidInput)
	ErrNegativeUnits      = fmt.Errorf("%w: units consumed must not be negative", ErrInvalidInput)
	ErrInvalidStatus      = fmt.Errorf("%w: unknown bill status", ErrInvalidInput)
	ErrInvalidRole        = fmt.Errorf("%w: unknown role", ErrInvalidInput)
)

// StorageError wraps a driver failure so it classifies as ErrStorage while
// keeping the original cause in the chain.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// InvalidInput builds an ErrInvalidInput with a field-specific message.
func InvalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
