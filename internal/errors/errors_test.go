package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{
			name:     "contract error type",
			errType:  ErrTypeContract,
			expected: "CONTRACT",
		},
		{
			name:     "parsing error type",
			errType:  ErrTypeParsing,
			expected: "PARSING",
		},
		{
			name:     "storage error type",
			errType:  ErrTypeStorage,
			expected: "STORAGE",
		},
		{
			name:     "validation error type",
			errType:  ErrTypeValidation,
			expected: "VALIDATION",
		},
		{
			name:     "not found error type",
			errType:  ErrTypeNotFound,
			expected: "NOT_FOUND",
		},
		{
			name:     "config error type",
			errType:  ErrTypeConfig,
			expected: "CONFIG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeContract,
				Message: "required column \"salary_range\" is missing from the input table",
				Cause:   nil,
			},
			wantMessage: "[CONTRACT] required column \"salary_range\" is missing from the input table",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeStorage,
				Message: "failed to write checkpoint",
				Cause:   fmt.Errorf("permission denied"),
			},
			wantMessage: "[STORAGE] failed to write checkpoint: permission denied",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "",
				Cause:   nil,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			assert.Equal(t, tt.wantMessage, got)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	t.Run("unwrap with cause", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		appErr := NewStorageError("checkpoint save failed", cause)
		assert.Equal(t, cause, appErr.Unwrap())
		assert.True(t, errors.Is(appErr, cause))
	})

	t.Run("unwrap without cause", func(t *testing.T) {
		appErr := NewValidationError("job_id must be unique")
		assert.Nil(t, appErr.Unwrap())
	})
}

func TestAppError_WithContext(t *testing.T) {
	tests := []struct {
		name          string
		appError      *AppError
		key           string
		value         interface{}
		expectedValue interface{}
	}{
		{
			name:          "add string context",
			appError:      NewContractError("vocabulary is empty", nil),
			key:           "config_key",
			value:         "enrichment.skills.top_n",
			expectedValue: "enrichment.skills.top_n",
		},
		{
			name:          "add integer context",
			appError:      NewStorageError("checkpoint digest mismatch", nil),
			key:           "row_count",
			value:         500,
			expectedValue: 500,
		},
		{
			name: "add context to error with existing context",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "column validation failed",
				Context: map[string]interface{}{"column": "job_id"},
			},
			key:           "rows",
			value:         12,
			expectedValue: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.WithContext(tt.key, tt.value)

			// Should return the same instance
			assert.Same(t, tt.appError, result)

			require.Contains(t, result.Context, tt.key)
			assert.Equal(t, tt.expectedValue, result.Context[tt.key])
			assert.NotNil(t, result.Context)
		})
	}
}

func TestAppError_WithContext_NilContext(t *testing.T) {
	appError := &AppError{
		Type:    ErrTypeParsing,
		Message: "undecodable checkpoint payload",
		Context: nil,
	}

	result := appError.WithContext("checkpoint", "02_after_skills")

	assert.NotNil(t, result.Context)
	assert.Equal(t, "02_after_skills", result.Context["checkpoint"])
}

func TestNewAppError(t *testing.T) {
	tests := []struct {
		name      string
		errType   ErrorType
		message   string
		cause     error
		wantType  ErrorType
		wantMsg   string
		wantCause error
	}{
		{
			name:      "create contract error",
			errType:   ErrTypeContract,
			message:   "source column missing",
			cause:     nil,
			wantType:  ErrTypeContract,
			wantMsg:   "source column missing",
			wantCause: nil,
		},
		{
			name:      "create storage error with cause",
			errType:   ErrTypeStorage,
			message:   "rename failed",
			cause:     errors.New("read-only filesystem"),
			wantType:  ErrTypeStorage,
			wantMsg:   "rename failed",
			wantCause: errors.New("read-only filesystem"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAppError(tt.errType, tt.message, tt.cause)

			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantMsg, got.Message)

			if tt.wantCause != nil {
				require.NotNil(t, got.Cause)
				assert.Equal(t, tt.wantCause.Error(), got.Cause.Error())
			} else {
				assert.Nil(t, got.Cause)
			}

			assert.NotNil(t, got.Context)
			assert.Empty(t, got.Context)
		})
	}
}

func TestNewMissingColumnError(t *testing.T) {
	got := NewMissingColumnError("skills_required")

	assert.Equal(t, ErrTypeContract, got.Type)
	assert.Equal(t, `required column "skills_required" is missing from the input table`, got.Message)
	assert.Equal(t, "skills_required", got.Context["column"])
	assert.Nil(t, got.Cause)
}

func TestTypedConstructors(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{
			name:     "contract error",
			build:    func() *AppError { return NewContractError("empty vocabulary", nil) },
			wantType: ErrTypeContract,
			wantMsg:  "empty vocabulary",
		},
		{
			name:     "parsing error",
			build:    func() *AppError { return NewParsingError("bad metadata JSON", nil) },
			wantType: ErrTypeParsing,
			wantMsg:  "bad metadata JSON",
		},
		{
			name:     "storage error",
			build:    func() *AppError { return NewStorageError("write failed", nil) },
			wantType: ErrTypeStorage,
			wantMsg:  "write failed",
		},
		{
			name:     "validation error",
			build:    func() *AppError { return NewValidationError("duplicate job_id") },
			wantType: ErrTypeValidation,
			wantMsg:  "duplicate job_id",
		},
		{
			name:     "not found error",
			build:    func() *AppError { return NewNotFoundError("checkpoint") },
			wantType: ErrTypeNotFound,
			wantMsg:  "checkpoint not found",
		},
		{
			name:     "config error",
			build:    func() *AppError { return NewConfigError("invalid bin edges", nil) },
			wantType: ErrTypeConfig,
			wantMsg:  "invalid bin edges",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build()
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.NotNil(t, got.Context)
		})
	}
}

func TestAppError_ErrorsIntegration(t *testing.T) {
	t.Run("errors.As works through wrapping", func(t *testing.T) {
		originalErr := NewContractError("required column missing", nil)
		wrappedErr := fmt.Errorf("skills step: %w", originalErr)

		var appErr *AppError
		assert.True(t, errors.As(wrappedErr, &appErr))
		assert.Equal(t, ErrTypeContract, appErr.Type)
	})

	t.Run("nested error unwrapping", func(t *testing.T) {
		rootErr := fmt.Errorf("disk full")
		storageErr := NewStorageError("checkpoint save failed", rootErr)
		stepErr := fmt.Errorf("salary step: %w", storageErr)

		assert.True(t, errors.Is(stepErr, storageErr))
		assert.True(t, errors.Is(stepErr, rootErr))
	})
}
