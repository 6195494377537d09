package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/events"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// maxNormalizationFailures is the three-strikes threshold: once an item
// has accumulated this many DRAFT-stage failures, the draft is permanently
// deleted instead of being retried. Intentional, irrecoverable data loss
// to cap wasted reprocessing of unfixable content.
const maxNormalizationFailures = 3

// Config is the orchestrator's immutable configuration.
type Config struct {
	// BatchSize bounds how many items are fetched per stage per
	// ProcessBatch call.
	BatchSize int

	// RetryAttempts bounds in-process retries of a single item when a
	// handler fails with an infrastructure error.
	RetryAttempts int

	// AutoApprovalEnabled makes ProcessBatch include the VALIDATED stage
	// and the approval step bypass manual-review routing. Meant for
	// staging and test environments.
	AutoApprovalEnabled bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     50,
		RetryAttempts: 3,
	}
}

// Orchestrator drives batches of items through the promotion pipeline.
// It fetches bounded, oldest-first batches per stage, dispatches each item
// to its stage handler, performs the atomic stage moves, and records
// failures and metrics. One item's failure never aborts the batch.
type Orchestrator struct {
	store      store.PipelineStore
	normalizer *NormalizationStep
	validator  *ValidationStep
	approver   *ApprovalStep
	emitter    events.Emitter
	config     Config
	logger     *slog.Logger

	// sleep is the backoff sleep between retry attempts, replaceable in
	// tests.
	sleep func(time.Duration)
}

// NewOrchestrator creates an Orchestrator. The emitter may be nil, in
// which case no transition events are published. Zero config fields fall
// back to DefaultConfig values.
func NewOrchestrator(
	s store.PipelineStore,
	normalizer *NormalizationStep,
	validator *ValidationStep,
	approver *ApprovalStep,
	emitter events.Emitter,
	config Config,
	logger *slog.Logger,
) *Orchestrator {
	if s == nil {
		panic("pipeline store cannot be nil")
	}

	defaults := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = defaults.RetryAttempts
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:      s,
		normalizer: normalizer,
		validator:  validator,
		approver:   approver,
		emitter:    emitter,
		config:     config,
		logger:     logger.With(slog.String("component", "pipeline_orchestrator")),
		sleep:      time.Sleep,
	}
}

// SetSleep replaces the backoff sleep function. Tests use this to avoid
// real delays.
func (o *Orchestrator) SetSleep(sleep func(time.Duration)) {
	o.sleep = sleep
}

// ProcessBatch fetches up to BatchSize items per stage (oldest first) and
// processes them sequentially: drafts, then candidates, then validated
// items when auto-approval is enabled. Per-item outcomes are
// returned; failures never abort the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context) []Result {
	results := o.processStage(ctx, domain.StageDraft, o.store.FetchDrafts)
	results = append(results, o.processStage(ctx, domain.StageCandidate, o.store.FetchCandidates)...)

	if o.config.AutoApprovalEnabled {
		results = append(results, o.processStage(ctx, domain.StageValidated, o.store.FetchValidated)...)
	}

	return results
}

// processStage fetches and processes one stage's batch. Fetch failures are
// logged and yield no results; the next stage still runs.
func (o *Orchestrator) processStage(
	ctx context.Context,
	stage domain.Stage,
	fetch func(context.Context, int) ([]*domain.Item, error),
) []Result {
	items, err := fetch(ctx, o.config.BatchSize)
	if err != nil {
		o.logger.Error("failed to fetch stage batch",
			slog.String("stage", stage.String()),
			slog.String("error", err.Error()))
		return nil
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, o.ProcessItem(ctx, item))
	}

	return results
}

// ProcessItem dispatches the item to its stage handler, retrying handler
// infrastructure errors up to RetryAttempts times with 2^attempt second
// backoff. Exhausted retries are converted into a durable failure record
// and a failed Result; the error is never propagated.
func (o *Orchestrator) ProcessItem(ctx context.Context, item *domain.Item) Result {
	start := time.Now()

	var handler func(context.Context, *domain.Item) (Result, error)
	switch item.Stage {
	case domain.StageDraft:
		handler = o.handleDraft
	case domain.StageCandidate:
		handler = o.handleCandidate
	case domain.StageValidated:
		handler = o.handleValidated
	default:
		return o.failedResult(item, item.Stage, start,
			fmt.Sprintf("no handler for stage %q", item.Stage))
	}

	var lastErr error
	for attempt := 1; attempt <= o.config.RetryAttempts; attempt++ {
		result, err := handler(ctx, item)
		if err == nil {
			return result
		}

		lastErr = err
		o.logger.Warn("stage handler failed",
			slog.String("item_id", item.ID.String()),
			slog.String("stage", item.Stage.String()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", o.config.RetryAttempts),
			slog.String("error", err.Error()))

		if attempt < o.config.RetryAttempts {
			o.sleep(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}

	// Retries exhausted: record a permanent failure and move on. The item
	// stays in its stage and will be re-fetched on a later cycle. This is
	// an infrastructure failure, so it never counts toward three strikes.
	record := domain.NewFailureRecord(item.ID, item.ContentType, item.Stage, domain.FailureClassInfrastructure, lastErr.Error())
	if err := o.store.RecordFailure(ctx, record); err != nil {
		o.logger.Error("failed to record permanent failure",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
	}

	return o.failedResult(item, item.Stage, start, lastErr.Error())
}

// handleDraft runs normalization. Failures are counted toward the
// three-strikes deletion policy; success performs the atomic move into
// CANDIDATE storage.
func (o *Orchestrator) handleDraft(ctx context.Context, item *domain.Item) (Result, error) {
	start := time.Now()

	result := o.normalizer.Normalize(item)
	if !result.Success {
		previous, err := o.store.NormalizationFailureCount(ctx, item.ID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up normalization failure count: %w", err)
		}

		record := domain.NewFailureRecord(item.ID, item.ContentType, domain.StageDraft, domain.FailureClassContent, result.ErrorMessage())
		if err := o.store.RecordFailure(ctx, record); err != nil {
			return Result{}, fmt.Errorf("failed to record normalization failure: %w", err)
		}

		if previous+1 >= maxNormalizationFailures {
			if err := o.store.DeleteDraft(ctx, item.ID); err != nil {
				return Result{}, fmt.Errorf("failed to delete draft after repeated failures: %w", err)
			}
			o.logger.Warn("draft permanently deleted after repeated normalization failures",
				slog.String("item_id", item.ID.String()),
				slog.String("content_type", item.ContentType.String()),
				slog.Int("failure_count", previous+1),
				slog.String("errors", result.ErrorMessage()))
		}

		o.recordMetric(ctx, domain.StageDraft, item.ContentType, false, start)
		return o.failedResult(item, domain.StageDraft, start, result.Errors...), nil
	}

	if err := o.store.MoveToCandidates(ctx, item); err != nil {
		return Result{}, fmt.Errorf("failed to move draft to candidates: %w", err)
	}

	o.emitTransition(ctx, item, domain.StageDraft, domain.StageCandidate)
	o.recordMetric(ctx, domain.StageDraft, item.ContentType, true, start)

	return o.successResult(item, domain.StageCandidate, start), nil
}

// handleCandidate runs validation. Failed candidates stay in place with no
// failure counter; success performs the atomic move into VALIDATED
// storage, propagating the draft lineage.
func (o *Orchestrator) handleCandidate(ctx context.Context, item *domain.Item) (Result, error) {
	start := time.Now()

	result, err := o.validator.Validate(ctx, item)
	if err != nil {
		return Result{}, err
	}

	if !result.Success {
		o.recordMetric(ctx, domain.StageCandidate, item.ContentType, false, start)
		return o.failedResult(item, domain.StageCandidate, start, result.Errors...), nil
	}

	if err := o.store.MoveToValidated(ctx, item); err != nil {
		return Result{}, fmt.Errorf("failed to move candidate to validated: %w", err)
	}

	o.emitTransition(ctx, item, domain.StageCandidate, domain.StageValidated)
	o.recordMetric(ctx, domain.StageCandidate, item.ContentType, true, start)

	return o.successResult(item, domain.StageValidated, start), nil
}

// handleValidated runs the approval step. "Needs review" keeps the item in
// VALIDATED (the queue insertion happens inside the step); approval copies
// the payload into permanent storage and deletes the validated row.
func (o *Orchestrator) handleValidated(ctx context.Context, item *domain.Item) (Result, error) {
	start := time.Now()

	result, err := o.approver.Approve(ctx, item)
	if err != nil {
		return Result{}, err
	}

	if !result.Success {
		o.recordMetric(ctx, domain.StageValidated, item.ContentType, false, start)
		return o.failedResult(item, domain.StageValidated, start, result.Errors...), nil
	}

	permanentID, err := o.store.CopyToApproved(ctx, item)
	if err != nil {
		return Result{}, fmt.Errorf("failed to copy item to approved storage: %w", err)
	}

	o.logger.Info("item approved",
		slog.String("item_id", item.ID.String()),
		slog.String("content_type", item.ContentType.String()),
		slog.String("permanent_id", permanentID.String()))

	o.emitTransition(ctx, item, domain.StageValidated, domain.StageApproved)
	o.recordMetric(ctx, domain.StageValidated, item.ContentType, true, start)

	return o.successResult(item, domain.StageApproved, start), nil
}

// emitTransition publishes a stage-transition event. Emission failures are
// logged but never fail the item: the stage move has already committed.
func (o *Orchestrator) emitTransition(ctx context.Context, item *domain.Item, from, to domain.Stage) {
	if o.emitter == nil {
		return
	}

	event := events.NewStageTransitionEvent(item, from, to)
	if err := o.emitter.EmitEvent(ctx, event); err != nil {
		o.logger.Error("failed to emit stage transition event",
			slog.String("item_id", item.ID.String()),
			slog.String("from_stage", from.String()),
			slog.String("to_stage", to.String()),
			slog.String("error", err.Error()))
	}
}

// recordMetric appends a per-item metric. Metric write failures are logged
// and never fail the item.
func (o *Orchestrator) recordMetric(ctx context.Context, stage domain.Stage, contentType domain.ContentType, success bool, start time.Time) {
	failed := 0
	if !success {
		failed = 1
	}

	metric := domain.NewMetric(stage, contentType, 1, failed, time.Since(start).Milliseconds())
	if err := o.store.RecordMetric(ctx, metric); err != nil {
		o.logger.Error("failed to record pipeline metric",
			slog.String("stage", stage.String()),
			slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) successResult(item *domain.Item, newStage domain.Stage, start time.Time) Result {
	return Result{
		ItemID:   item.ID.String(),
		Success:  true,
		NewStage: newStage,
		Metrics: ResultMetrics{
			Stage:      item.Stage,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}
}

func (o *Orchestrator) failedResult(item *domain.Item, stage domain.Stage, start time.Time, errs ...string) Result {
	return Result{
		ItemID:   item.ID.String(),
		NewStage: stage,
		Errors:   errs,
		Metrics: ResultMetrics{
			Stage:      item.Stage,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}
}
