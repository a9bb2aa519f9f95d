package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestOptions(t *testing.T) {
	t.Run("nil map yields defaults", func(t *testing.T) {
		opts := ParseRequestOptions(nil, "base-model")
		assert.Equal(t, DefaultMaxTokens, opts.MaxTokens)
		assert.Equal(t, "base-model", opts.Model)
		assert.Nil(t, opts.Temperature)
		assert.Empty(t, opts.System)
	})

	t.Run("all fields set", func(t *testing.T) {
		opts := ParseRequestOptions(map[string]any{
			"max_tokens":  150,
			"model":       "other-model",
			"system":      "be brief",
			"temperature": 0.7,
		}, "base-model")

		assert.Equal(t, 150, opts.MaxTokens)
		assert.Equal(t, "other-model", opts.Model)
		assert.Equal(t, "be brief", opts.System)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.7, *opts.Temperature)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		opts := ParseRequestOptions(map[string]any{
			"max_tokens":  -5,
			"model":       "",
			"temperature": 9.5,
		}, "base-model")

		assert.Equal(t, DefaultMaxTokens, opts.MaxTokens)
		assert.Equal(t, "base-model", opts.Model)
		assert.Nil(t, opts.Temperature)
	})

	t.Run("zero temperature is preserved", func(t *testing.T) {
		opts := ParseRequestOptions(map[string]any{"temperature": 0.0}, "m")
		require.NotNil(t, opts.Temperature)
		assert.Zero(t, *opts.Temperature)
	})
}

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounter()

	assert.Zero(t, tc.EstimateTokens(""))
	assert.Equal(t, 5, tc.EstimateTokens("twenty characters aa"))

	assert.Equal(t, 42, tc.GetTokenCount(42, "ignored text"))
	assert.Equal(t, 3, tc.GetTokenCount(0, "twelve chars"))
}

func TestProviderErrorRetryability(t *testing.T) {
	retryable := []ErrorType{ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout}
	for _, et := range retryable {
		assert.True(t, NewProviderError("p", et, 0, "", nil).IsRetryable(), "type %d", et)
	}

	terminal := []ErrorType{ErrorTypeAuthentication, ErrorTypeBadRequest, ErrorTypeNotFound, ErrorTypeUnknown}
	for _, et := range terminal {
		assert.False(t, NewProviderError("p", et, 0, "", nil).IsRetryable(), "type %d", et)
	}
}

func TestErrorClassifierHTTP(t *testing.T) {
	ec := &ErrorClassifier{Provider: "test"}

	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeBadRequest},
	}
	for _, tt := range tests {
		pe := ec.ClassifyHTTPError(tt.status, "msg", nil)
		assert.Equal(t, tt.want, pe.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, pe.StatusCode)
	}
}
