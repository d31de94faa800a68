package model

import (
	"errors"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string       `json:"error"`
	Message       string       `json:"message"`
	Fields        []FieldError `json:"fields,omitempty"`
	CorrelationID string       `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeInvalidID         = "INVALID_ID"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Services wrap them with detail using %w.
var (
	ErrNotFound          = NewDomainError(ErrCodeNotFound, "donation not found")
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "transition not allowed from the current status")
	ErrInvalidState      = NewDomainError(ErrCodeInvalidState, "donation can no longer be modified")
	ErrForbidden         = NewDomainError(ErrCodeForbidden, "actor is not allowed to perform this operation")
	ErrConflict          = NewDomainError(ErrCodeConflict, "donation was changed concurrently; refresh and retry")
	ErrValidation        = NewDomainError(ErrCodeValidation, "request validation failed")
)

// ErrStaleRecord is returned by stores when a conditional write matched no row
// because the record changed after it was read.
var ErrStaleRecord = errors.New("record changed since it was read")

// FieldError describes a single violated field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated field constraint of a request.
type ValidationError struct {
	Fields []FieldError
}

// Add records a violation for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e when at least one violation was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
