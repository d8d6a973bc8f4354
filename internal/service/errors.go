package service

import "github.com/pkg/errors"

// ErrForbidden is returned when the caller is not allowed to perform the
// operation, such as editing another user's event without the admin flag.
var ErrForbidden = errors.New("operation not permitted")

// ErrNotFound is returned when the target entity does not exist
var ErrNotFound = errors.New("not found")

// ValidationError reports rejected input. Fields maps field names to
// human-readable problems; handlers surface it as a 400 with the map intact.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError creates a validation error with a single field problem
func NewValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

// IsValidationError reports whether err is a ValidationError and returns it
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
