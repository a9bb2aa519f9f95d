package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tranmanhhung/sn102/internal/ports"
)

// providerEnvVars maps provider types to the environment variables carrying
// their API keys.
var providerEnvVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GOOGLE_API_KEY",
}

// Circuit breaker defaults shared by every registry client.
const (
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// providerDefaultModels supplies a model when a spec names only a provider.
var providerDefaultModels = map[string]string{
	"openai":    OpenAIDefaultModel,
	"anthropic": AnthropicDefaultModel,
	"google":    GoogleDefaultModel,
}

// Registry hands out lazily created clients keyed by "provider/model" specs.
// All clients share a middleware stack (retry, rate limit, metrics) built
// from RegistryConfig.
type Registry struct {
	mu      sync.Mutex
	clients map[string]ports.LLMClient

	timeout    time.Duration
	maxRetries int
	rateLimit  rate.Limit
	rateBurst  int
	collector  ports.MetricsCollector
}

// RegistryConfig holds the shared settings applied to every created client.
type RegistryConfig struct {
	// Timeout bounds individual provider requests.
	Timeout time.Duration
	// MaxRetries is the per-request retry budget for transient failures.
	MaxRetries int
	// RateLimit and RateBurst configure the shared token bucket pacing.
	RateLimit float64
	RateBurst int
	// Collector receives request metrics. Nil disables metric recording.
	Collector ports.MetricsCollector
}

// NewRegistry creates an empty registry. Clients are created on first use.
func NewRegistry(config RegistryConfig) *Registry {
	return &Registry{
		clients:    make(map[string]ports.LLMClient),
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		rateLimit:  rate.Limit(config.RateLimit),
		rateBurst:  config.RateBurst,
		collector:  config.Collector,
	}
}

// Client resolves a "provider/model" spec (model optional) to a ready client.
// API keys come from the provider's environment variable. Clients are cached
// per spec and safe for concurrent use.
func (r *Registry) Client(spec string) (ports.LLMClient, error) {
	if spec == "" {
		return nil, fmt.Errorf("model spec cannot be empty")
	}

	provider, model := parseSpec(spec)
	envVar, ok := providerEnvVars[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q in spec %q", provider, spec)
	}
	if model == "" {
		model = providerDefaultModels[provider]
	}
	key := provider + "/" + model

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, exists := r.clients[key]; exists {
		return client, nil
	}

	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s not set for provider %q", envVar, provider)
	}

	// Breaker outermost: a request that exhausts its retries trips the
	// breaker once, not once per attempt.
	middleware := []Middleware{
		CircuitBreakerMiddleware(defaultBreakerFailures, defaultBreakerCooldown),
		RetryMiddleware(r.maxRetries, time.Second, 30*time.Second),
		RateLimitMiddleware(r.rateLimit, r.rateBurst),
	}
	if r.collector != nil {
		middleware = append(middleware, MetricsMiddleware(provider, r.collector))
	}

	client, err := NewClient(provider, ClientConfig{
		APIKey:     apiKey,
		Model:      model,
		Timeout:    r.timeout,
		Middleware: middleware,
	})
	if err != nil {
		return nil, err
	}

	r.clients[key] = client
	return client, nil
}

func parseSpec(spec string) (provider, model string) {
	parts := strings.SplitN(spec, "/", 2)
	provider = parts[0]
	if len(parts) > 1 {
		model = parts[1]
	}
	return
}
