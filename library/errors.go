package library

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input. It is always detected before the
	// store is touched.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an identity lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation or an illegal lifecycle
	// transition (double borrow, double return, delete of a referenced record).
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
