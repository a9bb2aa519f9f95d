// Package ports defines the interfaces that form the contract between the
// evaluator/worker core and the infrastructure layer. These interfaces enable
// dependency inversion and make the core testable without any network or
// model access.
package ports

import (
	"context"
	"time"

	"github.com/tranmanhhung/sn102/internal/domain"
)

// LLMClient provides access to a text generation model. Implementations wrap
// provider SDKs behind a middleware chain for retries, rate limiting, and
// metrics.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text. The options map
	// carries provider-specific parameters such as temperature, max_tokens,
	// or a system instruction.
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage is Complete with input/output token counts for
	// budget accounting.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// JudgeOracle scores candidate texts against a reference answer. The returned
// slice is order-preserving and length-preserving on success: scores[i] is
// the score of candidates[i], clamped to [0, 1].
type JudgeOracle interface {
	Score(ctx context.Context, prompt, reference string, candidates []string) ([]float64, error)
}

// Transport performs the fan-out/fan-in dispatch of a round's prompt to a set
// of workers. A non-responding worker yields an absent Candidate rather than
// an error; latency is measured by the caller's side of the wire, never
// self-reported by workers.
type Transport interface {
	Dispatch(ctx context.Context, requestID, prompt string, workers []domain.WorkerID, timeout time.Duration) []domain.Candidate
}

// ReputationStore persists per-worker standing across rounds. Updates merge
// the new blended score into the existing value; reputation is never
// overwritten wholesale. Workers missing from a round's records are treated
// as an implicit zero by the updater.
type ReputationStore interface {
	// Update folds blended totals into the persisted reputation values.
	Update(ctx context.Context, records []domain.ScoreRecord) error

	// Reputation returns the current standing for a worker, zero if unknown.
	Reputation(ctx context.Context, worker domain.WorkerID) (float64, error)
}

// RoundRecorder archives per-round score details for later inspection. It is
// a reporting sink; recording failures must never fail a round.
type RoundRecorder interface {
	RecordRound(ctx context.Context, round domain.Round, records []domain.ScoreRecord) error
}

// MetricsCollector abstracts metric recording so core packages do not depend
// on a concrete metrics backend.
type MetricsCollector interface {
	RecordCounter(name string, value float64, labels map[string]string)
	RecordHistogram(name string, value float64, labels map[string]string)
	RecordGauge(name string, value float64, labels map[string]string)
}
