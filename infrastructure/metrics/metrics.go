// Package metrics wires Prometheus collectors for the evaluator and worker
// and implements the ports.MetricsCollector facade used by the LLM client
// middleware.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the system records. A single instance is
// shared by the evaluator loop, the worker pipeline, and the LLM middleware.
type Collector struct {
	roundsTotal     *prometheus.CounterVec
	roundDuration   prometheus.Histogram
	blendedScore    prometheus.Histogram
	judgeBatches    *prometheus.CounterVec
	degradedBatches prometheus.Counter

	cacheEvents     *prometheus.CounterVec
	cacheSize       prometheus.Gauge
	pipelineStage   *prometheus.CounterVec
	pipelineLatency prometheus.Histogram

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec
}

// New registers all collectors in the default Prometheus registry.
func New() *Collector {
	return &Collector{
		roundsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sn102_rounds_total",
				Help: "Evaluation rounds by outcome.",
			},
			[]string{"status"},
		),
		roundDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sn102_round_duration_seconds",
				Help:    "Wall-clock duration of one evaluation round.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		blendedScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sn102_blended_score",
				Help:    "Blended incentive values handed to the reputation updater.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		judgeBatches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sn102_judge_batches_total",
				Help: "Judge oracle batch calls by outcome.",
			},
			[]string{"status"},
		),
		degradedBatches: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sn102_judge_degraded_rounds_total",
				Help: "Rounds zero-scored because the judge budget could not fit a single candidate.",
			},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sn102_cache_events_total",
				Help: "Response cache lookups and evictions by kind.",
			},
			[]string{"kind"},
		),
		cacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sn102_cache_entries",
				Help: "Current response cache entry count.",
			},
		),
		pipelineStage: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sn102_pipeline_responses_total",
				Help: "Worker responses by terminal pipeline stage.",
			},
			[]string{"stage"},
		),
		pipelineLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sn102_pipeline_duration_seconds",
				Help:    "End-to-end worker response pipeline latency.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		llmRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sn102_llm_requests_total",
				Help: "LLM provider requests by provider, model, and status.",
			},
			[]string{"provider", "model", "status"},
		),
		llmLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sn102_llm_latency_seconds",
				Help:    "LLM provider request latency.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"provider", "model"},
		),
		llmTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sn102_llm_tokens_total",
				Help: "LLM token usage by direction.",
			},
			[]string{"provider", "model", "token_type"},
		),
	}
}

// Round-level recording helpers used by the evaluator.

func (c *Collector) RecordRound(status string, d time.Duration) {
	c.roundsTotal.WithLabelValues(status).Inc()
	c.roundDuration.Observe(d.Seconds())
}

func (c *Collector) RecordBlendedScore(total float64) { c.blendedScore.Observe(total) }

func (c *Collector) RecordJudgeBatch(status string) {
	c.judgeBatches.WithLabelValues(status).Inc()
}

func (c *Collector) RecordDegradedRound() { c.degradedBatches.Inc() }

// Worker-side recording helpers.

func (c *Collector) RecordCacheEvent(kind string) { c.cacheEvents.WithLabelValues(kind).Inc() }
func (c *Collector) SetCacheSize(n int)           { c.cacheSize.Set(float64(n)) }

func (c *Collector) RecordPipelineResponse(stage string, d time.Duration) {
	c.pipelineStage.WithLabelValues(stage).Inc()
	c.pipelineLatency.Observe(d.Seconds())
}

// RecordCounter implements ports.MetricsCollector for the LLM middleware.
func (c *Collector) RecordCounter(name string, value float64, labels map[string]string) {
	switch name {
	case "llm_requests_total":
		c.llmRequests.WithLabelValues(labels["provider"], labels["model"], labels["status"]).Add(value)
	case "llm_tokens_total":
		c.llmTokens.WithLabelValues(labels["provider"], labels["model"], labels["token_type"]).Add(value)
	}
}

// RecordHistogram implements ports.MetricsCollector.
func (c *Collector) RecordHistogram(name string, value float64, labels map[string]string) {
	if name == "llm_latency_seconds" {
		c.llmLatency.WithLabelValues(labels["provider"], labels["model"]).Observe(value)
	}
}

// RecordGauge implements ports.MetricsCollector.
func (c *Collector) RecordGauge(name string, value float64, labels map[string]string) {}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler { return promhttp.Handler() }
