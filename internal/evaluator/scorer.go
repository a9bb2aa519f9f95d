// Package evaluator implements the coordinator side of the network: the
// batch-constrained judging of candidate responses, the blending of quality
// and latency into one incentive value, and the round loop that drives both.
package evaluator

import (
	"context"
	"time"

	"github.com/tranmanhhung/sn102/internal/domain"
	"github.com/tranmanhhung/sn102/internal/ports"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

// perItemOverhead is added to each candidate's length when estimating batch
// sizes, accounting for the numbering and formatting the judge prompt wraps
// around each response.
const perItemOverhead = 10

// Metrics is the metric surface the evaluator records to.
type Metrics interface {
	RecordRound(status string, d time.Duration)
	RecordBlendedScore(total float64)
	RecordJudgeBatch(status string)
	RecordDegradedRound()
}

// NopMetrics discards all evaluator metrics.
type NopMetrics struct{}

func (NopMetrics) RecordRound(string, time.Duration) {}
func (NopMetrics) RecordBlendedScore(float64)        {}
func (NopMetrics) RecordJudgeBatch(string)           {}
func (NopMetrics) RecordDegradedRound()              {}

// BatchScorer partitions a round's candidates into judge calls that respect
// the oracle's input-size budget and reassembles one ordered score vector.
type BatchScorer struct {
	judge   ports.JudgeOracle
	budget  int
	log     logger.Logger
	metrics Metrics
}

// NewBatchScorer builds a scorer against the given oracle. budget is the
// total input-size allowance, in characters, of one oracle call.
func NewBatchScorer(judge ports.JudgeOracle, budget int, log logger.Logger, m Metrics) *BatchScorer {
	if m == nil {
		m = NopMetrics{}
	}
	return &BatchScorer{
		judge:   judge,
		budget:  budget,
		log:     log.Named("scorer"),
		metrics: m,
	}
}

// ScoreAll returns a quality score in [0, 1] for every candidate, keyed by
// worker id. Absent candidates score 0 and are never sent to the judge. When
// the candidate set does not fit one oracle call, it is split into
// consecutive batches issued sequentially; a failing batch zeroes only its
// own members.
func (s *BatchScorer) ScoreAll(ctx context.Context, prompt, reference string, candidates []domain.Candidate) map[domain.WorkerID]float64 {
	scores := make(map[domain.WorkerID]float64, len(candidates))
	for _, c := range candidates {
		scores[c.Worker] = 0
	}

	present := make([]domain.Candidate, 0, len(candidates))
	totalSize := 0
	for _, c := range candidates {
		if c.Absent() {
			continue
		}
		present = append(present, c)
		totalSize += len(c.Text()) + perItemOverhead
	}
	if len(present) == 0 {
		return scores
	}

	avgSize := totalSize / len(present)
	if avgSize == 0 {
		return scores
	}

	// One unit of safety margin keeps the payload under the budget even when
	// sizes skew above the average.
	maxBatch := (s.budget-len(prompt)-len(reference))/avgSize - 1
	if maxBatch <= 0 {
		// Degraded mode: the oracle cannot accept even one candidate within
		// budget, so the whole set zero-scores.
		s.log.Warn(ctx, "judge budget too small for any candidate, zero-scoring round",
			logger.Int("budget", s.budget),
			logger.Int("avg_candidate_size", avgSize),
			logger.Int("candidates", len(present)))
		s.metrics.RecordDegradedRound()
		return scores
	}

	for start := 0; start < len(present); start += maxBatch {
		end := start + maxBatch
		if end > len(present) {
			end = len(present)
		}
		s.scoreBatch(ctx, prompt, reference, present[start:end], scores)
	}
	return scores
}

// scoreBatch issues one oracle call and writes results into scores. Failures
// leave the batch members at zero without touching other batches.
func (s *BatchScorer) scoreBatch(ctx context.Context, prompt, reference string, batch []domain.Candidate, scores map[domain.WorkerID]float64) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text()
	}

	batchScores, err := s.judge.Score(ctx, prompt, reference, texts)
	if err != nil {
		s.log.Warn(ctx, "judge batch failed, zero-scoring its members",
			logger.Error(err), logger.Int("batch_size", len(batch)))
		s.metrics.RecordJudgeBatch("error")
		return
	}
	if len(batchScores) != len(batch) {
		s.log.Warn(ctx, "judge returned wrong score count, zero-scoring batch",
			logger.Int("want", len(batch)), logger.Int("got", len(batchScores)))
		s.metrics.RecordJudgeBatch("mismatch")
		return
	}

	for i, c := range batch {
		score := batchScores[i]
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		scores[c.Worker] = score
	}
	s.metrics.RecordJudgeBatch("ok")
}
