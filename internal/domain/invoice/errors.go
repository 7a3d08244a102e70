package invoice

import (
	"errors"
	"fmt"
)

var (
	// ErrItemIndexOutOfRange is returned when an item operation targets
	// an index outside the current item list
	ErrItemIndexOutOfRange = errors.New("line item index out of range")

	// ErrLastItem indicates a removal that would leave the invoice with
	// no items; the list never becomes empty
	ErrLastItem = errors.New("cannot remove the last remaining item")
)

// ValidationError represents an error that occurs during invoice validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
