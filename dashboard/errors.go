package dashboard

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("store is not authenticated")
	ErrValidation       = errors.New("validation failed")
	ErrTerminalStatus   = errors.New("reward request already has a final status")
	ErrNoSelection      = errors.New("Please select rewards first")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidOTP       = errors.New("OTP must be 6 digits")
	ErrNoPendingOTP     = errors.New("request an OTP before verifying")
	ErrMissingStore     = errors.New("Login failed: missing store info.")
)

// ValidationError reports a form field rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
