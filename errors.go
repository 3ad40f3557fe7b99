package stencil

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested shape or resource does not exist.
	ErrNotFound = errors.New("stencil: not found")

	// ErrInvalidModel is returned when a model definition is malformed or
	// violates a structural rule.
	ErrInvalidModel = errors.New("stencil: invalid model")

	// ErrUnsupported is returned when an operation is asked to handle an
	// input it was deliberately not taught to handle.
	ErrUnsupported = errors.New("stencil: unsupported")
)

// NotFoundError reports a lookup miss for a labeled entity.
type NotFoundError struct {
	label string
	id    any // Optional: the identifier that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("stencil: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("stencil: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the identifier that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given label.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the identifier
// that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFoundError reports whether the error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
