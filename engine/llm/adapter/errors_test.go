package llmadapter

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorParser_ParseError(t *testing.T) {
	parser := NewErrorParser("openai")
	t.Run("Should classify embedded HTTP status codes", func(t *testing.T) {
		parsed := parser.ParseError(errors.New("request failed with status code: 429"))
		require.NotNil(t, parsed)
		assert.Equal(t, ErrCodeRateLimit, parsed.Code)
		assert.Equal(t, http.StatusTooManyRequests, parsed.HTTPStatus)
		assert.Equal(t, "openai", parsed.Provider)
	})
	t.Run("Should classify rate limit phrasing without a status code", func(t *testing.T) {
		parsed := parser.ParseError(errors.New("rate_limit_error: slow down"))
		require.NotNil(t, parsed)
		assert.Equal(t, ErrCodeRateLimit, parsed.Code)
		assert.True(t, parsed.Retryable())
	})
	t.Run("Should classify timeouts as retryable", func(t *testing.T) {
		parsed := parser.ParseError(errors.New("context deadline exceeded"))
		require.NotNil(t, parsed)
		assert.Equal(t, ErrCodeTimeout, parsed.Code)
		assert.True(t, parsed.Retryable())
	})
	t.Run("Should classify credential failures as not retryable", func(t *testing.T) {
		parsed := parser.ParseError(errors.New("invalid api key provided"))
		require.NotNil(t, parsed)
		assert.Equal(t, ErrCodeUnauthorized, parsed.Code)
		assert.False(t, parsed.Retryable())
	})
	t.Run("Should return nil for unrecognized errors", func(t *testing.T) {
		assert.Nil(t, parser.ParseError(errors.New("something novel happened")))
		assert.Nil(t, parser.ParseError(nil))
	})
}

func TestError_Unwrap(t *testing.T) {
	t.Run("Should preserve the wrapped error chain", func(t *testing.T) {
		inner := errors.New("boom")
		wrapped := fmt.Errorf("call failed: %w", NewErrorWithCode(ErrCodeTimeout, "timeout", "anthropic", inner))
		llmErr, ok := IsLLMError(wrapped)
		require.True(t, ok)
		assert.Equal(t, ErrCodeTimeout, llmErr.Code)
		assert.ErrorIs(t, wrapped, inner)
	})
}
