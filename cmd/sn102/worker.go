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

	"github.com/tranmanhhung/sn102/infrastructure/llm"
	"github.com/tranmanhhung/sn102/infrastructure/metrics"
	"github.com/tranmanhhung/sn102/infrastructure/transport"
	"github.com/tranmanhhung/sn102/internal/config"
	"github.com/tranmanhhung/sn102/internal/ports"
	"github.com/tranmanhhung/sn102/internal/worker"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Serve the response pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runWorker(cmd.Context(), cfg)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.LogLevel)
	collector := metrics.New()

	// The generation model is optional: without one the pipeline still serves
	// crisis, template, and fallback responses.
	var generation ports.LLMClient
	registry := llm.NewRegistry(llm.RegistryConfig{
		Timeout:    cfg.LLM.RequestTimeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RateLimit:  cfg.LLM.RateLimit,
		RateBurst:  cfg.LLM.RateBurst,
		Collector:  collector,
	})
	if client, err := registry.Client(cfg.LLM.WorkerModel); err != nil {
		log.Warn(ctx, "generation model unavailable, serving without it", logger.Error(err))
	} else {
		generation = client
	}

	templates, err := loadTemplates(cfg.Worker.TemplatesPath)
	if err != nil {
		return err
	}

	pipeline := worker.NewPipeline(worker.PipelineConfig{
		CacheMaxSize:      cfg.Worker.CacheMaxSize,
		CacheCrisis:       cfg.Worker.CacheCrisis,
		GenerationWorkers: cfg.Worker.GenerationWorkers,
		Templates:         templates,
	}, generation, log, collector)

	server := transport.NewServer(transport.ServerConfig{
		AuthToken:     cfg.Worker.AuthToken,
		QueueCapacity: cfg.Worker.QueueCapacity,
	}, pipeline, log)

	httpSrv := &http.Server{
		Addr:              cfg.Worker.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("worker server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, cfg.MetricsAddr) })
	}

	log.Info(ctx, "worker started",
		logger.String("listen_addr", cfg.Worker.ListenAddr),
		logger.Int("cache_max_size", cfg.Worker.CacheMaxSize))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func loadTemplates(path string) (worker.TemplateSet, error) {
	if path == "" {
		return nil, nil
	}
	templates, err := worker.LoadTemplates(path)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return templates, nil
}
