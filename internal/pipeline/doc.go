// Package pipeline implements the content promotion pipeline: the
// normalization, validation, and approval steps, and the orchestrator
// that drives batches of items through the DRAFT -> CANDIDATE ->
// VALIDATED -> APPROVED state machine.
//
// Steps report expected domain failures through StepResult rather than
// errors; returned errors are reserved for infrastructure problems and
// trigger the orchestrator's bounded retry with exponential backoff.
package pipeline
