package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// Definition length bounds enforced at validation time. The lower bound
// exists here rather than in normalization so that operator edits made
// after normalization are still checked.
const (
	minValidDefinitionLength = 5
	maxValidDefinitionLength = 1000
)

// ValidationStep runs the ordered candidate checks: payload type checks,
// required-field presence, language/level enums, then per-type semantic
// validation against the store (duplicates, referential integrity).
//
// Checks short-circuit between stages but accumulate within a stage: once
// the required-field check fails, no semantic lookups run, but every
// missing field is reported together.
type ValidationStep struct {
	store  store.ValidationStore
	logger *slog.Logger
}

// NewValidationStep creates a ValidationStep backed by the given lookups.
// If logger is nil, the default logger is used.
func NewValidationStep(s store.ValidationStore, logger *slog.Logger) *ValidationStep {
	if s == nil {
		panic("validation store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ValidationStep{
		store:  s,
		logger: logger.With(slog.String("component", "validation_step")),
	}
}

// Validate checks the candidate item. The returned error is reserved for
// infrastructure failures (store lookups); every expected rejection is a
// failed StepResult.
func (v *ValidationStep) Validate(ctx context.Context, item *domain.Item) (StepResult, error) {
	// Stage 1: the payload must decode into its typed variant. This is
	// where "word must be a string" and "correct_index must be a number"
	// class problems surface.
	payload, err := item.DecodePayload()
	if err != nil {
		return failureResult(err.Error()), nil
	}

	// Stage 2: required-field presence.
	if result := v.checkRequiredFields(payload); !result.Success {
		return result, nil
	}

	// Stage 3: language and level enums.
	if result := v.checkLanguageAndLevel(payload); !result.Success {
		return result, nil
	}

	// Stage 4: per-type semantic validation against the store.
	switch p := payload.(type) {
	case domain.MeaningPayload:
		return v.validateMeaning(ctx, item.ID, p)
	case domain.UtterancePayload:
		return v.validateUtterance(ctx, item.ID, p)
	case domain.RulePayload:
		return v.validateRule(ctx, item.ID, p)
	case domain.ExercisePayload:
		return v.validateExercise(p), nil
	default:
		return failureResult(fmt.Sprintf("unsupported content type %q", item.ContentType)), nil
	}
}

// checkRequiredFields verifies the exact per-type required-field whitelist,
// reporting every missing field together.
func (v *ValidationStep) checkRequiredFields(payload domain.Payload) StepResult {
	var errs []string

	missing := func(field, value string) {
		if value == "" {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field))
		}
	}

	switch p := payload.(type) {
	case domain.MeaningPayload:
		missing("word", p.Word)
		missing("definition", p.Definition)
		missing("language", p.Language)
		missing("level", p.Level)
	case domain.UtterancePayload:
		missing("text", p.Text)
		missing("language", p.Language)
		if p.MeaningID == uuid.Nil {
			errs = append(errs, "missing required field: meaning_id")
		}
	case domain.RulePayload:
		missing("title", p.Title)
		missing("explanation", p.Explanation)
		missing("language", p.Language)
		missing("level", p.Level)
		if len(p.Examples) == 0 {
			errs = append(errs, "missing required field: examples")
		}
	case domain.ExercisePayload:
		missing("prompt", p.Prompt)
		missing("language", p.Language)
		missing("level", p.Level)
		if len(p.Options) == 0 {
			errs = append(errs, "missing required field: options")
		}
		if p.CorrectIndex == nil {
			errs = append(errs, "missing required field: correct_index")
		}
	}

	if len(errs) > 0 {
		return failureResult(errs...)
	}

	return successResult()
}

// checkLanguageAndLevel verifies that the language is supported and that
// the level, when present, is a valid CEFR level.
func (v *ValidationStep) checkLanguageAndLevel(payload domain.Payload) StepResult {
	var errs []string

	language := domain.PayloadLanguage(payload)
	if !domain.IsSupportedLanguage(language) {
		errs = append(errs, fmt.Sprintf("unsupported language %q", language))
	}

	if level := domain.PayloadLevel(payload); level != "" && !domain.IsValidLevel(level) {
		errs = append(errs, fmt.Sprintf("invalid CEFR level %q", level))
	}

	if len(errs) > 0 {
		return failureResult(errs...)
	}

	return successResult()
}

func (v *ValidationStep) validateMeaning(ctx context.Context, itemID uuid.UUID, p domain.MeaningPayload) (StepResult, error) {
	var errs []string

	duplicate, err := v.store.MeaningDuplicateExists(ctx, p.Word, p.Language, p.Level, itemID)
	if err != nil {
		return StepResult{}, fmt.Errorf("meaning duplicate lookup failed: %w", err)
	}
	if duplicate {
		errs = append(errs, fmt.Sprintf("Duplicate word %q already exists for %s %s", p.Word, p.Language, p.Level))
	}

	if n := utf8.RuneCountInString(p.Definition); n < minValidDefinitionLength || n > maxValidDefinitionLength {
		errs = append(errs, fmt.Sprintf("definition must be between %d and %d characters", minValidDefinitionLength, maxValidDefinitionLength))
	}

	if len(errs) > 0 {
		return failureResult(errs...), nil
	}

	return successResult(), nil
}

func (v *ValidationStep) validateUtterance(ctx context.Context, itemID uuid.UUID, p domain.UtterancePayload) (StepResult, error) {
	var errs []string

	exists, err := v.store.MeaningExists(ctx, p.MeaningID)
	if err != nil {
		return StepResult{}, fmt.Errorf("meaning existence lookup failed: %w", err)
	}
	if !exists {
		errs = append(errs, fmt.Sprintf("referenced meaning %s does not exist", p.MeaningID))
	}

	duplicate, err := v.store.UtteranceDuplicateExists(ctx, p.Text, p.Language, itemID)
	if err != nil {
		return StepResult{}, fmt.Errorf("utterance duplicate lookup failed: %w", err)
	}
	if duplicate {
		errs = append(errs, fmt.Sprintf("Duplicate utterance text already exists for %s", p.Language))
	}

	if len(errs) > 0 {
		return failureResult(errs...), nil
	}

	return successResult(), nil
}

func (v *ValidationStep) validateRule(ctx context.Context, itemID uuid.UUID, p domain.RulePayload) (StepResult, error) {
	var errs []string

	duplicate, err := v.store.RuleDuplicateExists(ctx, p.Title, p.Language, p.Level, itemID)
	if err != nil {
		return StepResult{}, fmt.Errorf("rule duplicate lookup failed: %w", err)
	}
	if duplicate {
		errs = append(errs, fmt.Sprintf("Duplicate rule title %q already exists for %s %s", p.Title, p.Language, p.Level))
	}

	if len(p.Examples) == 0 {
		errs = append(errs, "examples must contain at least one entry")
	}
	for i, example := range p.Examples {
		if example.Correct == "" {
			errs = append(errs, fmt.Sprintf("example %d is missing a correct form", i))
		}
	}

	if len(errs) > 0 {
		return failureResult(errs...), nil
	}

	return successResult(), nil
}

func (v *ValidationStep) validateExercise(p domain.ExercisePayload) StepResult {
	var errs []string

	if p.CorrectIndex != nil && (*p.CorrectIndex < 0 || *p.CorrectIndex >= len(p.Options)) {
		errs = append(errs, fmt.Sprintf("correct_index %d is out of range for %d options", *p.CorrectIndex, len(p.Options)))
	}

	seen := make(map[string]bool, len(p.Options))
	for i, option := range p.Options {
		if option == "" {
			errs = append(errs, fmt.Sprintf("option %d must not be empty", i))
			continue
		}
		if seen[option] {
			errs = append(errs, fmt.Sprintf("option %q is duplicated", option))
		}
		seen[option] = true
	}

	if len(errs) > 0 {
		return failureResult(errs...)
	}

	return successResult()
}
