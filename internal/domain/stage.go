package domain

import "errors"

// Stage represents a pipeline item's current trust level.
type Stage string

// Pipeline stages in increasing order of trust.
const (
	StageDraft     Stage = "DRAFT"
	StageCandidate Stage = "CANDIDATE"
	StageValidated Stage = "VALIDATED"
	StageApproved  Stage = "APPROVED"
)

// ErrInvalidStage is returned when a stage value is not one of the four
// known pipeline stages.
var ErrInvalidStage = errors.New("invalid pipeline stage")

// ErrTerminalStage is returned when a transition is requested from the
// terminal APPROVED stage.
var ErrTerminalStage = errors.New("stage is terminal")

// stageTransitions is the single authoritative transition table.
// Every promotion the orchestrator performs must go through Next.
var stageTransitions = map[Stage]Stage{
	StageDraft:     StageCandidate,
	StageCandidate: StageValidated,
	StageValidated: StageApproved,
}

// IsValid reports whether s is one of the four known stages.
func (s Stage) IsValid() bool {
	switch s {
	case StageDraft, StageCandidate, StageValidated, StageApproved:
		return true
	default:
		return false
	}
}

// Terminal reports whether s has no successor stage.
func (s Stage) Terminal() bool {
	_, ok := stageTransitions[s]
	return !ok
}

// Next returns the stage an item in stage s is promoted to.
// Returns ErrInvalidStage for unknown stages and ErrTerminalStage for
// APPROVED, which has no successor.
func (s Stage) Next() (Stage, error) {
	if !s.IsValid() {
		return "", ErrInvalidStage
	}

	next, ok := stageTransitions[s]
	if !ok {
		return "", ErrTerminalStage
	}

	return next, nil
}

// String returns the stage name as stored and logged.
func (s Stage) String() string {
	return string(s)
}
