package service

import (
	"errors"
	"fmt"
)

// ValidationError is bad user input. Nothing was written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError formats a ValidationError
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PermissionError is returned when the actor may not perform an operation
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// NewPermissionError formats a PermissionError
func NewPermissionError(format string, args ...any) error {
	return &PermissionError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a referenced entity does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError for any printable id
func NewNotFoundError(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// InvariantError signals corrupted stored state, such as a member active in two clans.
// It is never caused by user input and must reach the operators.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Message
}

// NewInvariantError formats an InvariantError
func NewInvariantError(format string, args ...any) error {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err should be shown to the invoking user
// rather than logged as a failure.
func IsUserError(err error) bool {
	var validationErr *ValidationError
	var permissionErr *PermissionError
	var notFoundErr *NotFoundError
	return errors.As(err, &validationErr) || errors.As(err, &permissionErr) || errors.As(err, &notFoundErr)
}

// IsInvariantError reports whether err wraps an InvariantError
func IsInvariantError(err error) bool {
	var invariantErr *InvariantError
	return errors.As(err, &invariantErr)
}
