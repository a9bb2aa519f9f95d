// Package worker implements the per-request response pipeline a worker runs
// for every inbound prompt: cache lookup, crisis override, category
// classification, template rendering behind a quality gate, model generation
// fallback, and bounded cache insertion.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tranmanhhung/sn102/internal/domain"
	"github.com/tranmanhhung/sn102/internal/ports"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

// Stage names the terminal pipeline stage that produced a response.
type Stage string

const (
	StageCache     Stage = "cache"
	StageCrisis    Stage = "crisis"
	StageTemplate  Stage = "template"
	StageGenerated Stage = "generated"
	StageFallback  Stage = "fallback"
)

// Generation bounds for the model fallback.
const (
	maxPromptChars     = 2048
	maxGeneratedTokens = 150
	maxResponseTrunc   = 200 // words; longer generations are cut here
	minShortResponse   = 30  // words; shorter generations get the help suffix
)

// Metrics is the subset of metric recording the pipeline needs. A nil-safe
// no-op implementation is used when none is provided.
type Metrics interface {
	RecordCacheEvent(kind string)
	SetCacheSize(n int)
	RecordPipelineResponse(stage string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordCacheEvent(string)                  {}
func (nopMetrics) SetCacheSize(int)                         {}
func (nopMetrics) RecordPipelineResponse(string, time.Duration) {}

// PipelineConfig configures a response pipeline.
type PipelineConfig struct {
	// CacheMaxSize bounds the response cache entry count.
	CacheMaxSize int

	// CacheCrisis also caches crisis responses. Off by default: every crisis
	// prompt is re-evaluated fresh so novel patterns are never masked by a
	// stale hit.
	CacheCrisis bool

	// GenerationWorkers bounds concurrent model generations.
	GenerationWorkers int

	// Templates overrides the built-in response templates when non-nil.
	Templates TemplateSet
}

// Pipeline turns prompts into responses. It never returns an error: every
// failure path degrades to a fixed fallback text so the worker always
// replies. Safe for concurrent use.
type Pipeline struct {
	cache       *ResponseCache
	templates   TemplateSet
	llm         ports.LLMClient
	log         logger.Logger
	metrics     Metrics
	cacheCrisis bool

	// genSlots bounds concurrent model generation so the request path never
	// piles unbounded load onto the inference backend.
	genSlots chan struct{}
}

// NewPipeline builds a Pipeline. The LLM client may be nil, in which case the
// generation stage always falls back to the fixed response.
func NewPipeline(cfg PipelineConfig, llm ports.LLMClient, log logger.Logger, m Metrics) *Pipeline {
	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = 1000
	}
	if cfg.GenerationWorkers <= 0 {
		cfg.GenerationWorkers = 4
	}
	templates := cfg.Templates
	if templates == nil {
		templates = DefaultTemplates()
	}
	if m == nil {
		m = nopMetrics{}
	}

	return &Pipeline{
		cache:       NewResponseCache(cfg.CacheMaxSize),
		templates:   templates,
		llm:         llm,
		log:         log.Named("pipeline"),
		metrics:     m,
		cacheCrisis: cfg.CacheCrisis,
		genSlots:    make(chan struct{}, cfg.GenerationWorkers),
	}
}

// Respond runs the full pipeline for one prompt and returns the response
// text along with the terminal stage that produced it.
func (p *Pipeline) Respond(ctx context.Context, prompt string) (string, Stage) {
	start := time.Now()
	response, stage := p.respond(ctx, prompt)
	p.metrics.RecordPipelineResponse(string(stage), time.Since(start))
	return response, stage
}

func (p *Pipeline) respond(ctx context.Context, prompt string) (string, Stage) {
	key := CacheKey(prompt)
	if cached, ok := p.cache.Get(key); ok {
		p.metrics.RecordCacheEvent("hit")
		return cached, StageCache
	}
	p.metrics.RecordCacheEvent("miss")

	classification := Classify(prompt)
	if classification.Crisis {
		if p.cacheCrisis {
			p.insert(key, crisisResponse)
		}
		return crisisResponse, StageCrisis
	}

	response, stage := p.produce(ctx, prompt, classification)
	if stage != StageFallback {
		p.insert(key, response)
	}
	return response, stage
}

// produce covers the classification-to-generation stages. Any panic or error
// degrades to the fixed safe fallback rather than propagating.
func (p *Pipeline) produce(ctx context.Context, prompt string, c domain.Classification) (response string, stage Stage) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(ctx, "response pipeline panicked", logger.Any("panic", r))
			response, stage = fallbackResponse, StageFallback
		}
	}()

	// Templates are the fast path for recognized categories; the gate keeps
	// the slow generative path as the quality backstop.
	if c.Category != domain.CategoryGeneral {
		rendered := p.templates.Render(c.Category)
		if PassesQualityGate(rendered) {
			return rendered, StageTemplate
		}
	}

	generated, err := p.generate(ctx, prompt)
	if err != nil {
		p.log.Warn(ctx, "generation failed, serving fallback",
			logger.Error(err), logger.String("category", string(c.Category)))
		return fallbackResponse, StageFallback
	}
	return generated, StageGenerated
}

// generate invokes the model through the bounded generation pool and
// post-processes the continuation.
func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.llm == nil {
		return "", fmt.Errorf("no generation model configured")
	}

	select {
	case p.genSlots <- struct{}{}:
		defer func() { <-p.genSlots }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	prompt = truncatePrompt(prompt, maxPromptChars)

	raw, err := p.llm.Complete(ctx, prompt, map[string]any{
		"system":      generationSystemPrompt,
		"max_tokens":  maxGeneratedTokens,
		"temperature": 0.7,
	})
	if err != nil {
		return "", err
	}

	response := postProcess(raw)
	if strings.TrimSpace(response) == "" {
		return "", fmt.Errorf("model produced empty response")
	}
	return response, nil
}

// insert stores a response and publishes the new cache size.
func (p *Pipeline) insert(key, response string) {
	p.cache.Put(key, response)
	size := p.cache.Len()
	p.metrics.SetCacheSize(size)
}

// CacheLen exposes the current cache entry count.
func (p *Pipeline) CacheLen() int { return p.cache.Len() }

// truncatePrompt caps the prompt at max bytes without splitting a multi-byte
// rune at the cut.
func truncatePrompt(prompt string, max int) string {
	if len(prompt) <= max {
		return prompt
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(prompt[cut]) {
		cut--
	}
	return prompt[:cut]
}

// postProcess cleans up a raw model continuation: strips role-prefix
// artifacts, truncates overlong output, pads very short output with an
// encouragement to seek help, and guarantees an empathetic opening.
func postProcess(response string) string {
	response = strings.TrimSpace(strings.ReplaceAll(response, "Therapist:", ""))

	words := strings.Fields(response)
	if len(words) > maxResponseTrunc {
		response = strings.Join(words[:maxResponseTrunc], " ") + "..."
	} else if len(words) < minShortResponse {
		response += seekHelpSuffix
	}

	if !containsAny(strings.ToLower(response), empathyMarkers) {
		response = "I understand this is challenging for you. " + response
	}

	return strings.TrimSpace(response)
}
