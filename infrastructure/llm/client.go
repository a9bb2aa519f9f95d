// Package llm provides a unified client for the text models the network
// depends on: the evaluator's reference model, the judge model, and the
// worker's generation fallback. Provider SDKs (OpenAI, Anthropic, Google) are
// abstracted behind the CoreLLM interface and composed with middleware for
// retries, rate limiting, and metrics.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, time.Second, 30*time.Second),
//	        llm.RateLimitMiddleware(5, 10),
//	    },
//	})
//	out, err := client.Complete(ctx, "Hello", nil)
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tranmanhhung/sn102/internal/ports"
)

// CoreLLM is the minimal surface a provider must implement. Middleware wraps
// any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text plus input and
	// output token counts. The opts map carries request parameters such as
	// temperature, max_tokens, and system.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds everything needed to build a provider-backed client.
type ClientConfig struct {
	// APIKey authenticates against the provider.
	APIKey string

	// Model is the provider model name.
	Model string

	// BaseURL overrides the provider's default endpoint when non-empty.
	BaseURL string

	// Timeout bounds individual requests. Zero means no client-side timeout.
	Timeout time.Duration

	// Middleware is applied outermost-first.
	Middleware []Middleware
}

// Client implements ports.LLMClient over a middleware-wrapped CoreLLM.
type Client struct {
	core CoreLLM
}

// NewClient assembles a client for the named provider type.
func NewClient(providerType string, config ClientConfig) (ports.LLMClient, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", providerType, err)
	}

	// Reverse order so the first middleware ends up outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Complete sends a prompt and returns the response text, discarding usage.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and returns the response with token usage.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// GetModel returns the underlying provider's model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider implementation under a type
// name. Providers self-register from init functions.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
