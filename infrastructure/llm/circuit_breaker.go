package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a request
// without calling the provider.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// breakerState is the circuit breaker's current mode.
type breakerState int

const (
	// breakerClosed passes requests through normally.
	breakerClosed breakerState = iota
	// breakerOpen fails requests fast until the cooldown expires.
	breakerOpen
	// breakerHalfOpen lets one request probe whether the provider recovered.
	breakerHalfOpen
)

// CircuitBreaker trips open after maxFailures consecutive errors and fails
// fast for cooldown before probing recovery. State checks and outcome
// recording are split so the provider call itself runs unlocked.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	maxFailures int
	cooldown    time.Duration
	lastFailure time.Time
}

// NewCircuitBreaker builds a closed breaker with the given trip threshold and
// cooldown.
func NewCircuitBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{maxFailures: maxFailures, cooldown: cooldown}
}

// allow reports whether a request may proceed, moving an expired open
// circuit to half-open.
func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == breakerOpen {
		if time.Since(cb.lastFailure) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = breakerHalfOpen
	}
	return nil
}

// record folds a request outcome into the breaker state. Any failure during
// the half-open probe reopens immediately; a success closes and resets.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.state = breakerClosed
		cb.failures = 0
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state == breakerHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = breakerOpen
	}
}

// circuitBreakedLLM fails fast once the underlying provider has proven
// unhealthy, shielding it while it recovers.
type circuitBreakedLLM struct {
	next CoreLLM
	cb   *CircuitBreaker
}

// CircuitBreakerMiddleware wraps requests in a shared circuit breaker. Place
// it outermost so exhausted retries count as a single failure.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	cb := NewCircuitBreaker(maxFailures, cooldown)
	return func(next CoreLLM) CoreLLM {
		return &circuitBreakedLLM{next: next, cb: cb}
	}
}

func (c *circuitBreakedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := c.cb.allow(); err != nil {
		return "", 0, 0, err
	}

	response, tokensIn, tokensOut, err := c.next.DoRequest(ctx, prompt, opts)
	c.cb.record(err)
	return response, tokensIn, tokensOut, err
}

func (c *circuitBreakedLLM) GetModel() string  { return c.next.GetModel() }
func (c *circuitBreakedLLM) SetModel(m string) { c.next.SetModel(m) }
