package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/tranmanhhung/sn102/internal/ports"
)

// retryLLM retries transient failures with exponential backoff and jitter.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware retries failed requests up to maxRetries times. Only errors
// classified as retryable (rate limits, server errors, network problems) are
// retried; authentication and bad-request failures surface immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		response, tokensIn, tokensOut, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return response, tokensIn, tokensOut, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	return "", 0, 0, fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryLLM) backoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := time.Duration(float64(r.baseDelay) * float64(int(1)<<uint(attempt)))

	// Jitter of roughly ±25% avoids synchronized retry storms.
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - delay/4

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return true
}

func (r *retryLLM) GetModel() string  { return r.next.GetModel() }
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }

// rateLimitedLLM paces requests through a token bucket.
type rateLimitedLLM struct {
	next    CoreLLM
	limiter *rate.Limiter
}

// RateLimitMiddleware enforces a sustained request rate with burst headroom,
// blocking callers until a token is available.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next CoreLLM) CoreLLM {
		return &rateLimitedLLM{next: next, limiter: limiter}
	}
}

func (r *rateLimitedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", 0, 0, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoRequest(ctx, prompt, opts)
}

func (r *rateLimitedLLM) GetModel() string  { return r.next.GetModel() }
func (r *rateLimitedLLM) SetModel(m string) { r.next.SetModel(m) }

// metricsLLM records latency, outcome, and token usage per request.
type metricsLLM struct {
	next      CoreLLM
	provider  string
	collector ports.MetricsCollector
}

// MetricsMiddleware records request metrics through the given collector.
func MetricsMiddleware(provider string, collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, provider: provider, collector: collector}
	}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.provider,
		"model":    m.next.GetModel(),
		"status":   "success",
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			labels["status"] = "timeout"
		} else {
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("llm_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("llm_requests_total", 1, labels)
		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("llm_tokens_total", float64(tokensIn), labels)
			labels["token_type"] = "output"
			m.collector.RecordCounter("llm_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

func (m *metricsLLM) GetModel() string  { return m.next.GetModel() }
func (m *metricsLLM) SetModel(s string) { m.next.SetModel(s) }
