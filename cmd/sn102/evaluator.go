package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tranmanhhung/sn102/infrastructure/judge"
	"github.com/tranmanhhung/sn102/infrastructure/llm"
	"github.com/tranmanhhung/sn102/infrastructure/metrics"
	"github.com/tranmanhhung/sn102/infrastructure/store"
	"github.com/tranmanhhung/sn102/infrastructure/transport"
	"github.com/tranmanhhung/sn102/internal/config"
	"github.com/tranmanhhung/sn102/internal/domain"
	"github.com/tranmanhhung/sn102/internal/evaluator"
	"github.com/tranmanhhung/sn102/internal/ports"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

func newEvaluatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluator",
		Short: "Run the evaluation round loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runEvaluator(cmd.Context(), cfg)
		},
	}
}

func runEvaluator(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.LogLevel)
	collector := metrics.New()

	registry := llm.NewRegistry(llm.RegistryConfig{
		Timeout:    cfg.LLM.RequestTimeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RateLimit:  cfg.LLM.RateLimit,
		RateBurst:  cfg.LLM.RateBurst,
		Collector:  collector,
	})

	reference, err := registry.Client(cfg.LLM.ReferenceModel)
	if err != nil {
		return fmt.Errorf("reference model: %w", err)
	}

	oracle, err := buildJudge(cfg, registry, log)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBPath, cfg.Evaluator.ReputationAlpha)
	if err != nil {
		return err
	}
	defer db.Close()

	workers := make([]domain.WorkerID, len(cfg.Evaluator.Workers))
	for i, w := range cfg.Evaluator.Workers {
		workers[i] = domain.WorkerID(w)
	}

	ev := evaluator.New(
		evaluator.Config{
			RoundInterval:   cfg.Evaluator.RoundInterval,
			DispatchTimeout: cfg.Evaluator.DispatchTimeout,
			SampleSize:      cfg.Evaluator.SampleSize,
			Workers:         workers,
		},
		reference,
		transport.NewClient(transport.ClientConfig{
			AuthToken: cfg.Evaluator.AuthToken,
			Stake:     cfg.Evaluator.Stake,
		}, log),
		evaluator.NewBatchScorer(oracle, cfg.Evaluator.JudgeBudget, log, collector),
		db,
		db,
		log,
		collector,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ev.Run(ctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, cfg.MetricsAddr) })
	}

	log.Info(ctx, "evaluator started",
		logger.Int("workers", len(workers)),
		logger.String("judge", cfg.Evaluator.Judge),
		logger.Duration("round_interval", cfg.Evaluator.RoundInterval))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// buildJudge selects the configured judge oracle.
func buildJudge(cfg *config.Config, registry *llm.Registry, log logger.Logger) (ports.JudgeOracle, error) {
	switch cfg.Evaluator.Judge {
	case "lexical":
		return &judge.LexicalJudge{}, nil
	default:
		client, err := registry.Client(cfg.LLM.JudgeModel)
		if err != nil {
			return nil, fmt.Errorf("judge model: %w", err)
		}
		return judge.NewLLMJudge(client, log)
	}
}

// serveMetrics exposes the Prometheus endpoint until the context is
// cancelled.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
