// Package errors defines the application error taxonomy shared by the
// reconciliation engine, the document channel and the control API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeMismatch   ErrorType = "tenant_mismatch"
	ErrorTypeUpstream   ErrorType = "upstream_error"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal_error"
)

// AppError carries a classified, operator-readable failure.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

func newAppError(t ErrorType, code int, message string, details []string) *AppError {
	e := &AppError{Type: t, Message: message, Code: code}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// NewValidationError reports bad operator input, such as a blank tenant key.
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError reports a tenant or provisioning record that does not exist.
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewMismatchError reports a provisioning record that belongs to another tenant.
func NewMismatchError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeMismatch, http.StatusUnprocessableEntity, message, details)
}

// NewConflictError reports an operation rejected because of current state.
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewUpstreamError wraps a remote or transport failure of a collaborator.
func NewUpstreamError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeUpstream, http.StatusBadGateway, message, nil)
	if cause != nil {
		e.Details = cause.Error()
		e.cause = cause
	}
	return e
}

// GetAppError extracts an AppError from the chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// TypeOf returns the error type, or ErrorTypeInternal for unclassified errors.
func TypeOf(err error) ErrorType {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Type
	}
	return ErrorTypeInternal
}

func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

func IsMismatchError(err error) bool { return hasType(err, ErrorTypeMismatch) }

func IsUpstreamError(err error) bool { return hasType(err, ErrorTypeUpstream) }

func IsConflictError(err error) bool { return hasType(err, ErrorTypeConflict) }

func hasType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
