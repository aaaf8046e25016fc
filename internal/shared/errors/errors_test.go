package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "validation_error: tenant key is required", NewValidationError("tenant key is required").Error())
	assert.Equal(t, "not_found: tenant not found (acme)", NewNotFoundError("tenant not found", "acme").Error())
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", NewValidationError("x"), ErrorTypeValidation},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFoundError("x")), ErrorTypeNotFound},
		{"mismatch", NewMismatchError("x"), ErrorTypeMismatch},
		{"plain error", stderrors.New("boom"), ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestNewUpstreamError_Unwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewUpstreamError("license service unavailable", cause)

	assert.True(t, IsUpstreamError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Code)
	assert.Equal(t, "connection refused", err.Details)
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsMismatchError(fmt.Errorf("wrap: %w", NewMismatchError("x"))))
	assert.False(t, IsNotFoundError(NewValidationError("x")))
	assert.False(t, IsValidationError(nil))
	assert.True(t, IsConflictError(NewConflictError("x")))
}
