package evaluator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranmanhhung/sn102/internal/domain"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

// recordingJudge captures every batch it is asked to score and answers from a
// per-call script.
type recordingJudge struct {
	batches [][]string
	scores  [][]float64
	errs    []error
}

func (j *recordingJudge) Score(_ context.Context, _, _ string, candidates []string) ([]float64, error) {
	call := len(j.batches)
	j.batches = append(j.batches, candidates)

	if call < len(j.errs) && j.errs[call] != nil {
		return nil, j.errs[call]
	}
	if call < len(j.scores) {
		return j.scores[call], nil
	}
	out := make([]float64, len(candidates))
	for i := range out {
		out[i] = 0.5
	}
	return out, nil
}

func present(worker string, size int) domain.Candidate {
	text := strings.Repeat("a", size)
	return domain.Candidate{Worker: domain.WorkerID(worker), Output: &text}
}

func absent(worker string) domain.Candidate {
	return domain.Candidate{Worker: domain.WorkerID(worker)}
}

func TestBatchScorerAllAbsent(t *testing.T) {
	j := &recordingJudge{}
	s := NewBatchScorer(j, 12000, logger.Nop(), nil)

	scores := s.ScoreAll(context.Background(), "prompt", "reference", []domain.Candidate{
		absent("w1"), absent("w2"),
	})

	assert.Equal(t, map[domain.WorkerID]float64{"w1": 0, "w2": 0}, scores)
	assert.Empty(t, j.batches, "judge must not be called for an all-absent round")
}

func TestBatchScorerSingleBatch(t *testing.T) {
	j := &recordingJudge{scores: [][]float64{{0.9, 0.4, 0.7}}}
	s := NewBatchScorer(j, 12000, logger.Nop(), nil)

	scores := s.ScoreAll(context.Background(), "p", "r", []domain.Candidate{
		present("w1", 80), present("w2", 90), present("w3", 100),
	})

	require.Len(t, j.batches, 1)
	assert.Equal(t, 0.9, scores["w1"])
	assert.Equal(t, 0.4, scores["w2"])
	assert.Equal(t, 0.7, scores["w3"])
}

func TestBatchScorerAbsentMixedIn(t *testing.T) {
	j := &recordingJudge{scores: [][]float64{{0.8, 0.6}}}
	s := NewBatchScorer(j, 12000, logger.Nop(), nil)

	scores := s.ScoreAll(context.Background(), "p", "r", []domain.Candidate{
		present("w1", 90), absent("w2"), present("w3", 90),
	})

	require.Len(t, j.batches, 1)
	assert.Len(t, j.batches[0], 2, "absent candidates must never reach the judge")
	assert.Equal(t, 0.8, scores["w1"])
	assert.Equal(t, 0.0, scores["w2"])
	assert.Equal(t, 0.6, scores["w3"])
}

func TestBatchScorerSplitsIntoBatches(t *testing.T) {
	// Each candidate costs 90+10=100 budget units. With budget 352 and a
	// 1-char prompt and reference, (352-2)/100 - 1 = 2 per batch.
	j := &recordingJudge{scores: [][]float64{
		{0.1, 0.2},
		{0.3, 0.4},
		{0.5},
	}}
	s := NewBatchScorer(j, 352, logger.Nop(), nil)

	candidates := []domain.Candidate{
		present("w1", 90), present("w2", 90), present("w3", 90),
		present("w4", 90), present("w5", 90),
	}
	scores := s.ScoreAll(context.Background(), "p", "r", candidates)

	require.Len(t, j.batches, 3)
	assert.Len(t, j.batches[0], 2)
	assert.Len(t, j.batches[1], 2)
	assert.Len(t, j.batches[2], 1)

	// Order must survive the batch boundaries.
	for i, want := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		worker := candidates[i].Worker
		assert.Equal(t, want, scores[worker], "worker %s", worker)
	}
}

func TestBatchScorerBatchFailureIsolated(t *testing.T) {
	j := &recordingJudge{
		errs:   []error{fmt.Errorf("judge unavailable"), nil, nil},
		scores: [][]float64{nil, {0.6, 0.7}, {0.8}},
	}
	s := NewBatchScorer(j, 352, logger.Nop(), nil)

	candidates := []domain.Candidate{
		present("w1", 90), present("w2", 90), present("w3", 90),
		present("w4", 90), present("w5", 90),
	}
	scores := s.ScoreAll(context.Background(), "p", "r", candidates)

	require.Len(t, j.batches, 3)
	assert.Equal(t, 0.0, scores["w1"])
	assert.Equal(t, 0.0, scores["w2"])
	assert.Equal(t, 0.6, scores["w3"])
	assert.Equal(t, 0.7, scores["w4"])
	assert.Equal(t, 0.8, scores["w5"])
}

func TestBatchScorerDegradedBudget(t *testing.T) {
	j := &recordingJudge{}
	s := NewBatchScorer(j, 50, logger.Nop(), nil)

	scores := s.ScoreAll(context.Background(), "p", "r", []domain.Candidate{
		present("w1", 200), present("w2", 200),
	})

	assert.Empty(t, j.batches, "degraded mode must not call the judge")
	assert.Equal(t, 0.0, scores["w1"])
	assert.Equal(t, 0.0, scores["w2"])
}

func TestBatchScorerClampsScores(t *testing.T) {
	j := &recordingJudge{scores: [][]float64{{-0.5, 1.5}}}
	s := NewBatchScorer(j, 12000, logger.Nop(), nil)

	scores := s.ScoreAll(context.Background(), "p", "r", []domain.Candidate{
		present("w1", 90), present("w2", 90),
	})

	assert.Equal(t, 0.0, scores["w1"])
	assert.Equal(t, 1.0, scores["w2"])
}

func TestBatchScorerLengthMismatchZeroesBatch(t *testing.T) {
	j := &recordingJudge{scores: [][]float64{{0.9}}}
	s := NewBatchScorer(j, 12000, logger.Nop(), nil)

	scores := s.ScoreAll(context.Background(), "p", "r", []domain.Candidate{
		present("w1", 90), present("w2", 90),
	})

	assert.Equal(t, 0.0, scores["w1"])
	assert.Equal(t, 0.0, scores["w2"])
}
