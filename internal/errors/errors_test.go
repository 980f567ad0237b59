package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	wrapped := New(ErrCodeFileNotFound, "file not found: test.txt", originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, originalErr, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, originalErr))
}

func TestError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "target error",
			code:     ErrCodeInvalidTarget,
			message:  "target could not be parsed",
			expected: "[ERR_101_INVALID_TARGET] target could not be parsed",
		},
		{
			name:     "fetch error",
			code:     ErrCodeFetchFailed,
			message:  "clone failed",
			expected: "[ERR_201_FETCH_FAILED] clone failed",
		},
		{
			name:     "pipeline error",
			code:     ErrCodeEmbeddingFailed,
			message:  "embedding request failed",
			expected: "[ERR_302_EMBEDDING_FAILED] embedding request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file A not found", nil)
	err2 := New(ErrCodeFileNotFound, "file B not found", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file not found", nil)
	err2 := New(ErrCodeInvalidTarget, "bad target", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestError_WithDetails_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil)

	err = err.WithDetail("path", "/foo/bar.rs")
	err = err.WithDetail("size", "1024")

	assert.Equal(t, "/foo/bar.rs", err.Details["path"])
	assert.Equal(t, "1024", err.Details["size"])
}

func TestError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(ErrCodeNetworkTimeout, "connection timed out", nil)

	err = err.WithSuggestion("Check your network connection")

	assert.Equal(t, "Check your network connection", err.Suggestion)
}

func TestError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeInvalidTarget, CategoryTarget},
		{ErrCodeUnknownFeature, CategoryTarget},
		{ErrCodeFetchFailed, CategoryFetch},
		{ErrCodeFileNotFound, CategoryFetch},
		{ErrCodeEmbeddingFailed, CategoryPipeline},
		{ErrCodeChunkFailed, CategoryPipeline},
		{ErrCodeStoreFailed, CategoryStore},
		{ErrCodeNoQueryResults, CategoryStore},
		{ErrCodeInternal, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeConfigInvalid, SeverityFatal},
		{ErrCodeOperationNotFound, SeverityFatal},
		{ErrCodeFileNotFound, SeverityError},
		{ErrCodeNetworkTimeout, SeverityWarning},
		{ErrCodeFetchFailed, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{ErrCodeNetworkTimeout, true},
		{ErrCodeFetchFailed, true},
		{ErrCodeEmbeddingFailed, true},
		{ErrCodeStoreFailed, true},
		{ErrCodeFileNotFound, false},
		{ErrCodeConfigInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	wrapped := Wrap(ErrCodeInternal, originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
	assert.Equal(t, "something went wrong", wrapped.Message)
	assert.Equal(t, originalErr, wrapped.Cause)
}

func TestConfigError_CreatesConfigInvalidCode(t *testing.T) {
	err := ConfigError("invalid yaml syntax", nil)

	assert.Equal(t, ErrCodeConfigInvalid, err.Code)
}

func TestFetchFailed_CreatesFetchCategoryError(t *testing.T) {
	err := FetchFailed("cannot reach host", nil)

	assert.Equal(t, CategoryFetch, err.Category)
	assert.True(t, err.Retryable)
}

func TestValidationError_CreatesInvalidQueryCode(t *testing.T) {
	err := ValidationError("query cannot be empty", nil)

	assert.Equal(t, ErrCodeInvalidQuery, err.Code)
}

func TestIsRetryable_ChecksRetryableFlag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable error",
			err:      New(ErrCodeNetworkTimeout, "timeout", nil),
			expected: true,
		},
		{
			name:     "non-retryable error",
			err:      New(ErrCodeFileNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "wrapped retryable error",
			err:      Wrap(ErrCodeNetworkTimeout, errors.New("wrapped")),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "fatal error",
			err:      New(ErrCodeConfigInvalid, "bad config", nil),
			expected: true,
		},
		{
			name:     "operation not found is fatal",
			err:      OperationNotFound("op-1"),
			expected: true,
		},
		{
			name:     "non-fatal error",
			err:      New(ErrCodeFileNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}
