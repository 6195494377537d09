package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linguaflow/content-pipeline/internal/config"
	"github.com/linguaflow/content-pipeline/internal/events"
	"github.com/linguaflow/content-pipeline/internal/pipeline"
	"github.com/linguaflow/content-pipeline/internal/platform/logger"
	"github.com/linguaflow/content-pipeline/internal/platform/postgres"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the promotion pipeline batch loop",
		Long: "Run invokes the pipeline orchestrator on a fixed interval, " +
			"promoting draft content through candidate and validated stages " +
			"until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("worker configuration loaded",
		"batch_size", cfg.Pipeline.BatchSize,
		"retry_attempts", cfg.Pipeline.RetryAttempts,
		"auto_approval_enabled", cfg.Pipeline.AutoApprovalEnabled,
		"batch_interval", cfg.Pipeline.BatchInterval.String())

	db, err := openDatabase(cfg.Database.URL, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	orchestrator := buildOrchestrator(db, cfg, log)

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runBatchLoop(signalCtx, orchestrator, cfg.Pipeline.BatchInterval, log)
}

// buildOrchestrator wires the stores, steps, and audit trail together.
func buildOrchestrator(db *sql.DB, cfg *config.Config, log *slog.Logger) *pipeline.Orchestrator {
	pipelineStore := postgres.NewPostgresPipelineStore(db, log)
	validationStore := postgres.NewPostgresValidationStore(db, log)
	approvalStore := postgres.NewPostgresApprovalStore(db, log)

	emitter := events.NewInMemoryEmitter(log)
	emitter.RegisterHandler(postgres.NewPostgresEventLog(db, log))

	normalizer := pipeline.NewNormalizationStep()
	validator := pipeline.NewValidationStep(validationStore, log)
	approver := pipeline.NewApprovalStep(
		approvalStore,
		pipeline.NewRandomSampler(),
		cfg.Pipeline.AutoApprovalEnabled,
		log,
	)

	return pipeline.NewOrchestrator(
		pipelineStore,
		normalizer,
		validator,
		approver,
		emitter,
		pipeline.Config{
			BatchSize:           cfg.Pipeline.BatchSize,
			RetryAttempts:       cfg.Pipeline.RetryAttempts,
			AutoApprovalEnabled: cfg.Pipeline.AutoApprovalEnabled,
		},
		log,
	)
}

// runBatchLoop invokes ProcessBatch on every tick until the context is
// cancelled. The loop is the single-worker deployment assumed by the
// pipeline: nothing here claims items, so run exactly one worker per
// database.
func runBatchLoop(ctx context.Context, orchestrator *pipeline.Orchestrator, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("pipeline batch loop started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			log.Info("pipeline batch loop stopping")
			return nil

		case <-ticker.C:
			batchCtx := logger.WithLogger(ctx, log)
			results := orchestrator.ProcessBatch(batchCtx)

			succeeded, failed := 0, 0
			for _, result := range results {
				if result.Success {
					succeeded++
				} else {
					failed++
				}
			}

			if len(results) > 0 {
				log.Info("batch cycle completed",
					"items", len(results),
					"succeeded", succeeded,
					"failed", failed)
			}
		}
	}
}
