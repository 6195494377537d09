package pipeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
)

// Field limits enforced during normalization.
const (
	maxWordLength       = 100
	maxDefinitionLength = 1000
	minUtteranceWords   = 2
	maxUtteranceWords   = 50
	minExerciseOptions  = 2
	maxExerciseOptions  = 6
)

// terminalPunctuation is the set of sentence-ending marks (Latin and CJK)
// an utterance may already carry; anything else gets a period appended.
var terminalPunctuation = []string{".", "!", "?", "。", "！", "？"}

// NormalizationStep cleans up draft payloads per content type. It is a
// pure computation: no I/O, and it accumulates every violated constraint
// instead of failing fast, so one failed run reports all problems at once.
// Normalization is idempotent; re-running it on normalized content changes
// nothing.
type NormalizationStep struct{}

// NewNormalizationStep creates a NormalizationStep.
func NewNormalizationStep() *NormalizationStep {
	return &NormalizationStep{}
}

// Normalize decodes the item's payload, applies per-type cleanup, and on
// success writes the normalized payload back onto the item. Decode
// failures surface as a single error message.
func (s *NormalizationStep) Normalize(item *domain.Item) StepResult {
	payload, err := item.DecodePayload()
	if err != nil {
		return failureResult(err.Error())
	}

	var (
		normalized domain.Payload
		result     StepResult
	)

	switch p := payload.(type) {
	case domain.MeaningPayload:
		normalized, result = s.normalizeMeaning(p)
	case domain.UtterancePayload:
		normalized, result = s.normalizeUtterance(p)
	case domain.RulePayload:
		normalized, result = s.normalizeRule(p)
	case domain.ExercisePayload:
		normalized, result = s.normalizeExercise(p)
	default:
		return failureResult(fmt.Sprintf("unsupported content type %q", item.ContentType))
	}

	if !result.Success {
		return result
	}

	if err := item.SetPayload(normalized); err != nil {
		return failureResult(err.Error())
	}

	return result
}

func (s *NormalizationStep) normalizeMeaning(p domain.MeaningPayload) (domain.Payload, StepResult) {
	var errs []string

	p.Word = strings.TrimSpace(p.Word)
	p.Definition = strings.TrimSpace(p.Definition)

	if p.Word == "" {
		errs = append(errs, "word is required")
	} else if utf8.RuneCountInString(p.Word) > maxWordLength {
		errs = append(errs, fmt.Sprintf("word must be at most %d characters", maxWordLength))
	}

	if p.Definition == "" {
		errs = append(errs, "definition is required")
	} else if utf8.RuneCountInString(p.Definition) > maxDefinitionLength {
		errs = append(errs, fmt.Sprintf("definition must be at most %d characters", maxDefinitionLength))
	}

	if p.Language == "" {
		errs = append(errs, "language is required")
	}

	if p.Level == "" {
		errs = append(errs, "level is required")
	}

	if len(errs) > 0 {
		return nil, failureResult(errs...)
	}

	p.Definition = capitalizeFirst(p.Definition)

	return p, successResult()
}

func (s *NormalizationStep) normalizeUtterance(p domain.UtterancePayload) (domain.Payload, StepResult) {
	var errs []string

	p.Text = strings.TrimSpace(p.Text)
	p.Translation = strings.TrimSpace(p.Translation)

	if p.Text == "" {
		errs = append(errs, "text is required")
	} else {
		words := len(strings.Fields(p.Text))
		if words < minUtteranceWords || words > maxUtteranceWords {
			errs = append(errs, fmt.Sprintf("text must contain between %d and %d words", minUtteranceWords, maxUtteranceWords))
		}
	}

	if p.MeaningID == uuid.Nil {
		errs = append(errs, "meaning_id is required")
	}

	if len(errs) > 0 {
		return nil, failureResult(errs...)
	}

	p.Text = capitalizeFirst(p.Text)
	if !hasTerminalPunctuation(p.Text) {
		p.Text += "."
	}

	if p.Translation != "" {
		p.Translation = capitalizeFirst(p.Translation)
	}

	return p, successResult()
}

func (s *NormalizationStep) normalizeRule(p domain.RulePayload) (domain.Payload, StepResult) {
	var errs []string

	p.Title = strings.TrimSpace(p.Title)
	p.Explanation = strings.TrimSpace(p.Explanation)

	if p.Title == "" {
		errs = append(errs, "title is required")
	}

	if p.Explanation == "" {
		errs = append(errs, "explanation is required")
	}

	if p.Language == "" {
		errs = append(errs, "language is required")
	}

	if p.Level == "" {
		errs = append(errs, "level is required")
	}

	if len(p.Examples) == 0 {
		errs = append(errs, "examples must be a non-empty array")
	}

	if len(errs) > 0 {
		return nil, failureResult(errs...)
	}

	return p, successResult()
}

func (s *NormalizationStep) normalizeExercise(p domain.ExercisePayload) (domain.Payload, StepResult) {
	var errs []string

	p.Prompt = strings.TrimSpace(p.Prompt)

	if p.Prompt == "" {
		errs = append(errs, "prompt is required")
	}

	if len(p.Options) < minExerciseOptions || len(p.Options) > maxExerciseOptions {
		errs = append(errs, fmt.Sprintf("options must contain between %d and %d entries", minExerciseOptions, maxExerciseOptions))
	}

	if p.CorrectIndex == nil {
		errs = append(errs, "correct_index is required")
	} else if *p.CorrectIndex < 0 || *p.CorrectIndex >= len(p.Options) {
		errs = append(errs, "correct_index must be a valid index into options")
	}

	if p.Language == "" {
		errs = append(errs, "language is required")
	}

	if p.Level == "" {
		errs = append(errs, "level is required")
	}

	if len(errs) > 0 {
		return nil, failureResult(errs...)
	}

	return p, successResult()
}

// capitalizeFirst upper-cases the first letter of s, leaving the rest
// untouched.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)
	upper := unicode.ToUpper(r)
	if upper == r {
		return s
	}

	return string(upper) + s[size:]
}

// hasTerminalPunctuation reports whether s already ends in a
// sentence-ending mark.
func hasTerminalPunctuation(s string) bool {
	for _, mark := range terminalPunctuation {
		if strings.HasSuffix(s, mark) {
			return true
		}
	}
	return false
}
