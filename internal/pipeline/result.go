package pipeline

import (
	"strings"

	"github.com/linguaflow/content-pipeline/internal/domain"
)

// StepResult is the outcome of a single pipeline step. Expected domain
// failures (a missing field, a duplicate, "needs review") are reported
// through Errors; steps never return a Go error for them.
type StepResult struct {
	Success bool
	Errors  []string
}

// successResult returns a passing StepResult.
func successResult() StepResult {
	return StepResult{Success: true}
}

// failureResult returns a failing StepResult carrying the given messages.
func failureResult(errs ...string) StepResult {
	return StepResult{Errors: errs}
}

// ErrorMessage joins the step's error messages into a single string for
// failure records and logs.
func (r StepResult) ErrorMessage() string {
	return strings.Join(r.Errors, "; ")
}

// Result is the orchestrator's public per-item outcome.
type Result struct {
	ItemID   string
	Success  bool
	NewStage domain.Stage
	Errors   []string
	Metrics  ResultMetrics
}

// ResultMetrics carries per-item timing for external aggregation.
type ResultMetrics struct {
	Stage      domain.Stage
	DurationMs int64
}
