package service

import "errors"

// ValidationError marks business-rule violations (oversized caption, wrong
// media count, past schedule time). Handlers map these to 400s with
// field-level messages; they are never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationError(message string) error {
	return &ValidationError{Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
