// Package apperr defines the business-rule error kinds shared by the domain
// packages. Domain errors carry entity details and unwrap to one of the kinds
// below, so transports can classify them with errors.Is. Anything that does not
// match a kind is an unexpected failure.
package apperr

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrConflict          = errors.New("conflict")
)

// InputError reports a malformed or missing field.
type InputError struct {
	Field  string
	Reason string
}

// Invalid returns an InputError for the given field.
func Invalid(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// Kind returns the kind sentinel err belongs to, or nil for unexpected errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrInvalidInput,
		ErrNotFound,
		ErrAlreadyExists,
		ErrInsufficientStock,
		ErrInvalidStatus,
		ErrConflict,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
