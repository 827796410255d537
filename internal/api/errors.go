package api

import "fmt"

// ValidationError marks a malformed request; it is answered with 400
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func newValidationWrap(field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}
