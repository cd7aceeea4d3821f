package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid authorizer request",
				Err:     errors.New("methodArn is required"),
			},
			wantMsg: "validation: invalid authorizer request (methodArn is required)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeConfiguration,
				Message: "policy construction failed",
			},
			wantMsg: "configuration: policy construction failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_IsAndUnwrap(t *testing.T) {
	baseErr := errors.New("no statements defined for the policy")
	err := fmt.Errorf("authorize: %w", ErrPolicyConstruction.Wrap(baseErr))

	assert.ErrorIs(t, err, ErrPolicyConstruction)
	assert.ErrorIs(t, err, baseErr)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
}

func TestDomainError_Wrap(t *testing.T) {
	cause := errors.New("methodArn is required")
	err := ErrInvalidRequest.Wrap(cause)

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrInvalidRequest.Err)
	assert.Equal(t, "validation: invalid authorizer request (methodArn is required)", err.Error())
}

func TestErrorTypeHelpers(t *testing.T) {
	assert.True(t, IsValidationError(ErrInvalidRequest.Wrap(errors.New("bad"))))
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.True(t, IsConfigurationError(ErrPolicyConstruction))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}
