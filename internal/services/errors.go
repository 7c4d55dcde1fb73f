package services

import "errors"

// ErrInvalidCredentials is returned when a login does not match any user.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoContent is returned when a file record has no stored bytes.
var ErrNoContent = errors.New("file has no stored content")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
