package core

import (
	"errors"
	"strings"
)

// Error codes for relay protocol errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
)

// Error taxonomy shared by the HTTP surface.
var (
	// ErrValidation marks a malformed caller request.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration marks incomplete operator setup. Callers must not retry.
	ErrConfiguration = errors.New("server misconfiguration")
	// ErrInternal marks an unexpected failure whose detail stays server-side.
	ErrInternal = errors.New("internal error")
)

// ValidationError lists the request fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Field pairs a request field name with the value received for it.
type Field struct {
	Name  string
	Value string
}

// RequireFields returns a ValidationError naming every blank field, in order, or nil.
func RequireFields(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
