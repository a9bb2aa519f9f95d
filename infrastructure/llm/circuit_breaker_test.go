package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	core := &flakyLLM{
		failures: 100,
		err:      NewProviderError("test", ErrorTypeServerError, 500, "internal", nil),
	}
	wrapped := CircuitBreakerMiddleware(3, time.Hour)(core)

	for i := 0; i < 3; i++ {
		_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, 3, core.calls)

	// Tripped: subsequent requests fail fast without touching the provider.
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, core.calls)
}

func TestCircuitBreakerRecoversAfterCooldown(t *testing.T) {
	core := &flakyLLM{
		failures: 2,
		err:      NewProviderError("test", ErrorTypeServerError, 500, "internal", nil),
	}
	wrapped := CircuitBreakerMiddleware(2, 10*time.Millisecond)(core)

	for i := 0; i < 2; i++ {
		_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
		require.Error(t, err)
	}
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)

	// After the cooldown the half-open probe goes through and closes the
	// circuit again.
	time.Sleep(20 * time.Millisecond)
	response, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)

	_, _, _, err = wrapped.DoRequest(context.Background(), "p", nil)
	assert.NoError(t, err, "a successful probe fully closes the circuit")
}

func TestCircuitBreakerReopensOnFailedProbe(t *testing.T) {
	core := &flakyLLM{
		failures: 100,
		err:      NewProviderError("test", ErrorTypeServerError, 500, "internal", nil),
	}
	wrapped := CircuitBreakerMiddleware(1, 5*time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)

	time.Sleep(10 * time.Millisecond)
	_, _, _, err = wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCircuitOpen, "half-open lets the probe through")
	assert.Equal(t, 2, core.calls)

	// The failed probe reopens immediately.
	_, _, _, err = wrapped.DoRequest(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, core.calls)
}

func TestCircuitOpenIsNotRetried(t *testing.T) {
	assert.False(t, isRetryable(ErrCircuitOpen))
}
