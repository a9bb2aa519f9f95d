package llm

import (
	"sync"
)

// DefaultMaxTokens caps generation length when the caller does not specify
// max_tokens.
const DefaultMaxTokens = 1024

// BaseProvider holds common, thread-safe model-name state for providers.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model. Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the configured model. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the provider-neutral view of per-request parameters.
type RequestOptions struct {
	MaxTokens   int
	Model       string
	Temperature *float64
	System      string
}

// ParseRequestOptions extracts standard request parameters from an options
// map, falling back to defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: DefaultMaxTokens,
		Model:     defaultModel,
	}
	if opts == nil {
		return options
	}

	if v, ok := opts["max_tokens"].(int); ok && v > 0 {
		options.MaxTokens = v
	}
	if v, ok := opts["model"].(string); ok && v != "" {
		options.Model = v
	}
	if v, ok := opts["system"].(string); ok {
		options.System = v
	}
	if v, ok := opts["temperature"].(float64); ok && v >= 0 && v <= 2 {
		options.Temperature = &v
	}

	return options
}

// TokenCounter estimates token counts when the provider omits usage data.
type TokenCounter struct {
	// CharactersPerToken approximates tokenizer density for English text.
	CharactersPerToken float64
}

// NewTokenCounter returns a counter with the common 4-chars-per-token ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the provider-reported count, falling back to an
// estimate from the text.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}
