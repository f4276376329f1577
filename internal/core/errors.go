package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidType     = errors.New(`type must be either "berry" or "mushroom"`)
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidPrice    = errors.New("price must be greater than or equal to 0")
	ErrInvalidYear     = errors.New("year out of range")

	ErrUserNotFound = errors.New("user not found")
)

// FieldError ties a validation failure to the offending input field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

func missing(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}
