package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyLLM fails a configured number of times before succeeding.
type flakyLLM struct {
	failures int
	err      error
	calls    int
	model    string
}

func (f *flakyLLM) DoRequest(context.Context, string, map[string]any) (string, int, int, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", 0, 0, f.err
	}
	return "ok", 10, 20, nil
}

func (f *flakyLLM) GetModel() string  { return f.model }
func (f *flakyLLM) SetModel(m string) { f.model = m }

func TestRetryMiddlewareRetriesTransientErrors(t *testing.T) {
	core := &flakyLLM{
		failures: 2,
		err:      NewProviderError("test", ErrorTypeServerError, 500, "internal", nil),
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(core)

	response, tokensIn, tokensOut, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
	assert.Equal(t, 10, tokensIn)
	assert.Equal(t, 20, tokensOut)
	assert.Equal(t, 3, core.calls)
}

func TestRetryMiddlewareStopsOnNonRetryable(t *testing.T) {
	core := &flakyLLM{
		failures: 10,
		err:      NewProviderError("test", ErrorTypeAuthentication, 401, "bad key", nil),
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, 1, core.calls, "authentication failures are not retried")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrorTypeAuthentication, pe.Type)
}

func TestRetryMiddlewareExhaustsBudget(t *testing.T) {
	core := &flakyLLM{
		failures: 10,
		err:      NewProviderError("test", ErrorTypeRateLimit, 429, "slow down", nil),
	}
	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, 3, core.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryMiddlewareHonorsCancellation(t *testing.T) {
	core := &flakyLLM{
		failures: 10,
		err:      NewProviderError("test", ErrorTypeServerError, 500, "internal", nil),
	}
	wrapped := RetryMiddleware(5, time.Hour, time.Hour)(core)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, _, err := wrapped.DoRequest(ctx, "p", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation interrupts the backoff sleep")
}

func TestRateLimitMiddlewarePaces(t *testing.T) {
	core := &flakyLLM{}
	wrapped := RateLimitMiddleware(100, 1)(core)

	// Burst of one: the second call has to wait ~10ms for a token.
	start := time.Now()
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	_, _, _, err = wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.Equal(t, 2, core.calls)
}

type recordingCollector struct {
	counters   map[string]float64
	histograms map[string]int
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{counters: map[string]float64{}, histograms: map[string]int{}}
}

func (r *recordingCollector) RecordCounter(name string, value float64, labels map[string]string) {
	r.counters[name+"/"+labels["status"]] += value
}

func (r *recordingCollector) RecordHistogram(name string, _ float64, _ map[string]string) {
	r.histograms[name]++
}

func (r *recordingCollector) RecordGauge(string, float64, map[string]string) {}

func TestMetricsMiddleware(t *testing.T) {
	collector := newRecordingCollector()
	core := &flakyLLM{model: "m"}
	wrapped := MetricsMiddleware("test", collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total/success"])
	assert.Equal(t, 1, collector.histograms["llm_latency_seconds"])
	// Input and output token counters both recorded.
	assert.Equal(t, 30.0, collector.counters["llm_tokens_total/success"])
}

func TestMetricsMiddlewareRecordsErrors(t *testing.T) {
	collector := newRecordingCollector()
	core := &flakyLLM{failures: 10, err: fmt.Errorf("boom")}
	wrapped := MetricsMiddleware("test", collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, 1.0, collector.counters["llm_requests_total/error"])
	assert.Zero(t, collector.counters["llm_tokens_total/error"], "no token counts on failure")
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec         string
		wantProvider string
		wantModel    string
	}{
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"anthropic", "anthropic", ""},
		{"google/gemini-2.0-flash", "google", "gemini-2.0-flash"},
		{"openai/ft:gpt-4o/custom", "openai", "ft:gpt-4o/custom"},
	}

	for _, tt := range tests {
		provider, model := parseSpec(tt.spec)
		assert.Equal(t, tt.wantProvider, provider, tt.spec)
		assert.Equal(t, tt.wantModel, model, tt.spec)
	}
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	_, err := r.Client("mystery/model")
	assert.Error(t, err)

	_, err = r.Client("")
	assert.Error(t, err)
}

func TestRegistryRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	r := NewRegistry(RegistryConfig{})
	_, err := r.Client("openai/gpt-4o-mini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
