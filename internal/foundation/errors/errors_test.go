package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "fundsite.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "fundsite.yaml", file)
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", ConfigError("test error").Build())

		ce, ok := AsClassified(err)
		require.True(t, ok)
		assert.True(t, ce.IsFatal())
		assert.False(t, ce.CanRetry())
		assert.True(t, HasCategory(err, CategoryConfig))
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})
}

func TestErrorBuilder(t *testing.T) {
	original := errors.New("connection reset")
	err := WrapError(original, CategoryNetwork, "fetch failed").
		Warning().
		Retryable().
		WithContext("url", "https://cms.example.com/funds").
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.True(t, err.IsTransient())
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, original)
	assert.Contains(t, err.Error(), "connection reset")

	withMore := err.WithContext("attempt", 2)
	_, had := err.Context().Get("attempt")
	assert.False(t, had, "WithContext must not mutate the receiver")
	v, ok := withMore.Context().Get("attempt")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 1}
	b := ErrorContext{"b": 2}
	merged := a.Merge(b)
	assert.Equal(t, 1, merged["a"])
	assert.Equal(t, 2, merged["b"])
	assert.Equal(t, 1, a["b"])

	var nilCtx ErrorContext
	assert.Equal(t, b, nilCtx.Merge(b))
}
