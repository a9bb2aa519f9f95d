// Package config defines runtime configuration for the evaluator and worker
// roles, loaded from defaults, an optional YAML file, and SN102_-prefixed
// environment variables.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Package-level validator instance for struct tag validation.
var validate = validator.New()

// Config is the full runtime configuration. Both roles read from the same
// struct; each role ignores sections it does not use.
type Config struct {
	// LogLevel selects the minimum log level: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// MetricsAddr is the listen address for the Prometheus /metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string `koanf:"metrics_addr"`

	// DBPath is the SQLite database path for reputation and round history.
	DBPath string `koanf:"db_path" validate:"required"`

	Evaluator EvaluatorConfig `koanf:"evaluator"`
	Worker    WorkerConfig    `koanf:"worker"`
	LLM       LLMConfig       `koanf:"llm"`
}

// EvaluatorConfig controls the round loop and scoring.
type EvaluatorConfig struct {
	// RoundInterval is the wall-clock cadence between rounds.
	RoundInterval time.Duration `koanf:"round_interval" validate:"required"`

	// DispatchTimeout bounds the fan-out wait for worker replies.
	DispatchTimeout time.Duration `koanf:"dispatch_timeout" validate:"required"`

	// SampleSize is the number of workers queried per round. Zero queries all
	// configured workers.
	SampleSize int `koanf:"sample_size" validate:"min=0"`

	// Workers lists worker base URLs, e.g. "http://10.0.0.5:8091".
	Workers []string `koanf:"workers"`

	// JudgeBudget is the total input-size budget, in characters, for a single
	// judge oracle call.
	JudgeBudget int `koanf:"judge_budget" validate:"min=1"`

	// Judge selects the oracle: "llm" or "lexical".
	Judge string `koanf:"judge" validate:"oneof=llm lexical"`

	// ReputationAlpha is the EWMA merge factor for reputation updates.
	ReputationAlpha float64 `koanf:"reputation_alpha" validate:"gt=0,lte=1"`

	// AuthToken, when set, is presented to workers on every dispatch.
	AuthToken string `koanf:"auth_token"`

	// Stake is this evaluator's network stake, forwarded to workers so they
	// can order their admission queues.
	Stake float64 `koanf:"stake" validate:"min=0"`
}

// WorkerConfig controls the response pipeline and serving.
type WorkerConfig struct {
	// ListenAddr is the worker's HTTP listen address.
	ListenAddr string `koanf:"listen_addr"`

	// CacheMaxSize bounds the response cache entry count. When exceeded, the
	// oldest half of entries is evicted.
	CacheMaxSize int `koanf:"cache_max_size" validate:"min=2"`

	// CacheCrisis caches crisis responses when true. Off by default so every
	// crisis prompt is re-evaluated fresh.
	CacheCrisis bool `koanf:"cache_crisis"`

	// GenerationWorkers bounds the pool that runs model generation so the
	// request path never blocks on inference capacity.
	GenerationWorkers int `koanf:"generation_workers" validate:"min=1"`

	// QueueCapacity bounds the inbound priority queue.
	QueueCapacity int `koanf:"queue_capacity" validate:"min=1"`

	// TemplatesPath optionally overrides the built-in response templates with
	// a YAML file.
	TemplatesPath string `koanf:"templates_path"`

	// AuthToken, when set, is required in the X-SN102-Token header of inbound
	// requests. Unauthenticated requests are rejected.
	AuthToken string `koanf:"auth_token"`
}

// LLMConfig selects providers and models for the three model roles.
type LLMConfig struct {
	// ReferenceModel generates the evaluator's baseline answer,
	// "provider/model" form, e.g. "openai/gpt-4o-mini".
	ReferenceModel string `koanf:"reference_model" validate:"required"`

	// JudgeModel scores candidates when the llm judge is selected.
	JudgeModel string `koanf:"judge_model" validate:"required"`

	// WorkerModel is the worker's generation fallback model.
	WorkerModel string `koanf:"worker_model" validate:"required"`

	// RequestTimeout bounds individual provider calls.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxRetries is the retry budget for transient provider failures.
	MaxRetries int `koanf:"max_retries" validate:"min=0,max=10"`

	// RateLimit is the sustained provider request rate per second.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`

	// RateBurst allows temporary spikes above the sustained rate.
	RateBurst int `koanf:"rate_burst" validate:"min=1"`
}

// Default returns the configuration defaults. File and environment values
// overlay these.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		MetricsAddr: "",
		DBPath:      "sn102.db",
		Evaluator: EvaluatorConfig{
			RoundInterval:   5 * time.Minute,
			DispatchTimeout: 500 * time.Second,
			SampleSize:      0,
			JudgeBudget:     12000,
			Judge:           "llm",
			ReputationAlpha: 0.1,
		},
		Worker: WorkerConfig{
			ListenAddr:        ":8091",
			CacheMaxSize:      1000,
			CacheCrisis:       false,
			GenerationWorkers: 4,
			QueueCapacity:     256,
		},
		LLM: LLMConfig{
			ReferenceModel: "openai/gpt-4o-mini",
			JudgeModel:     "openai/gpt-4o",
			WorkerModel:    "openai/gpt-4o-mini",
			RequestTimeout: 60 * time.Second,
			MaxRetries:     3,
			RateLimit:      5,
			RateBurst:      10,
		},
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
