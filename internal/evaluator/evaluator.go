package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tranmanhhung/sn102/internal/domain"
	"github.com/tranmanhhung/sn102/internal/ports"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

// referenceSystemPrompt steers the reference model when producing the
// baseline answer candidates are judged against.
const referenceSystemPrompt = "You are a helpful therapist."

// Config carries the round-loop parameters.
type Config struct {
	// RoundInterval is the pause between consecutive round starts.
	RoundInterval time.Duration

	// DispatchTimeout bounds the fan-out wait for worker replies.
	DispatchTimeout time.Duration

	// SampleSize caps how many workers one round addresses. Zero or negative
	// addresses every known worker.
	SampleSize int

	// Workers lists the known worker identifiers.
	Workers []domain.WorkerID
}

// Evaluator drives the periodic evaluation rounds: pick a prompt, produce a
// reference answer, fan the prompt out to a worker sample, judge the replies,
// blend the scores, and fold them into reputation.
type Evaluator struct {
	cfg        Config
	reference  ports.LLMClient
	transport  ports.Transport
	scorer     *BatchScorer
	reputation ports.ReputationStore
	recorder   ports.RoundRecorder
	log        logger.Logger
	metrics    Metrics
	tracer     trace.Tracer
}

// New assembles an Evaluator. The recorder may be nil when round archival is
// not wanted.
func New(cfg Config, reference ports.LLMClient, transport ports.Transport, scorer *BatchScorer, reputation ports.ReputationStore, recorder ports.RoundRecorder, log logger.Logger, m Metrics) *Evaluator {
	if m == nil {
		m = NopMetrics{}
	}
	return &Evaluator{
		cfg:        cfg,
		reference:  reference,
		transport:  transport,
		scorer:     scorer,
		reputation: reputation,
		recorder:   recorder,
		log:        log.Named("evaluator"),
		metrics:    m,
		tracer:     otel.Tracer("evaluator"),
	}
}

// Run executes rounds until the context is cancelled. The first round starts
// immediately; round failures are logged and never stop the loop.
func (e *Evaluator) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.RoundInterval)
	defer ticker.Stop()

	for {
		e.runRound(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runRound performs one full evaluation cycle.
func (e *Evaluator) runRound(ctx context.Context) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "evaluator.round")
	defer span.End()

	round, records, err := e.evaluate(ctx)
	status := "ok"
	if err != nil {
		status = "error"
		e.log.Warn(ctx, "round failed", logger.Error(err))
	}
	e.metrics.RecordRound(status, time.Since(start))
	if err != nil {
		return
	}

	span.SetAttributes(
		attribute.String("round.request_id", round.RequestID),
		attribute.Int("round.workers", len(round.Workers)),
	)
	e.log.Info(ctx, "round complete",
		logger.String("request_id", round.RequestID),
		logger.Int("workers", len(round.Workers)),
		logger.Duration("elapsed", time.Since(start)))

	if err := e.reputation.Update(ctx, records); err != nil {
		e.log.Error(ctx, "reputation update failed",
			logger.Error(err), logger.String("request_id", round.RequestID))
	}
	if e.recorder != nil {
		if err := e.recorder.RecordRound(ctx, round, records); err != nil {
			e.log.Warn(ctx, "round archival failed",
				logger.Error(err), logger.String("request_id", round.RequestID))
		}
	}
}

// evaluate runs the prompt/reference/dispatch/score phases and returns the
// round with its blended records.
func (e *Evaluator) evaluate(ctx context.Context) (domain.Round, []domain.ScoreRecord, error) {
	prompt := PickPrompt()

	reference, err := e.reference.Complete(ctx, prompt, map[string]any{
		"system": referenceSystemPrompt,
	})
	if err != nil {
		return domain.Round{}, nil, fmt.Errorf("generate reference answer: %w", err)
	}

	workers := sampleWorkers(e.cfg.Workers, e.cfg.SampleSize)
	if len(workers) == 0 {
		return domain.Round{}, nil, fmt.Errorf("no workers available")
	}

	round := domain.Round{
		RequestID: "bt_" + uuid.NewString(),
		Prompt:    prompt,
		Reference: reference,
		Workers:   workers,
		CreatedAt: time.Now(),
	}

	e.log.Debug(ctx, "dispatching round",
		logger.String("request_id", round.RequestID),
		logger.Int("workers", len(workers)))

	candidates := e.transport.Dispatch(ctx, round.RequestID, prompt, workers, e.cfg.DispatchTimeout)

	scores := e.scorer.ScoreAll(ctx, prompt, reference, candidates)

	records := make([]domain.ScoreRecord, 0, len(candidates))
	for _, c := range candidates {
		rec := Blend(c, scores[c.Worker])
		records = append(records, rec)
		e.metrics.RecordBlendedScore(rec.Total)
	}
	return round, records, nil
}
