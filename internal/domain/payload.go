package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Payload is the typed content of a pipeline item. Each content type has
// its own variant carrying the fields that participate in normalization
// and validation; optional source metadata lives on the Item instead.
type Payload interface {
	// ContentType returns the content type this payload variant belongs to.
	ContentType() ContentType
}

// MeaningPayload is a single word sense: a word plus its definition.
type MeaningPayload struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Language   string `json:"language"`
	Level      string `json:"level"`
}

// ContentType implements Payload.
func (MeaningPayload) ContentType() ContentType { return ContentTypeMeaning }

// UtterancePayload is an example sentence attached to a meaning.
type UtterancePayload struct {
	Text        string    `json:"text"`
	Translation string    `json:"translation,omitempty"`
	Language    string    `json:"language"`
	Level       string    `json:"level,omitempty"`
	MeaningID   uuid.UUID `json:"meaning_id"`
}

// ContentType implements Payload.
func (UtterancePayload) ContentType() ContentType { return ContentTypeUtterance }

// RuleExample is one illustration attached to a grammar rule. Correct is
// required; Incorrect and Note are optional contrast material.
type RuleExample struct {
	Correct   string `json:"correct"`
	Incorrect string `json:"incorrect,omitempty"`
	Note      string `json:"note,omitempty"`
}

// RuleExamples decodes from either a JSON array of example objects or a
// JSON string containing an encoded array. Upstream producers (LLM
// extraction in particular) emit both shapes.
type RuleExamples []RuleExample

// UnmarshalJSON implements json.Unmarshaler.
func (e *RuleExamples) UnmarshalJSON(data []byte) error {
	// A JSON string holding an encoded array: unwrap it first.
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = []byte(encoded)
	}

	var examples []RuleExample
	if err := json.Unmarshal(data, &examples); err != nil {
		return fmt.Errorf("examples must be an array: %w", err)
	}

	*e = examples
	return nil
}

// RulePayload is a grammar rule with an explanation and examples.
type RulePayload struct {
	Title       string       `json:"title"`
	Explanation string       `json:"explanation"`
	Language    string       `json:"language"`
	Level       string       `json:"level"`
	Category    string       `json:"category,omitempty"`
	Examples    RuleExamples `json:"examples,omitempty"`
}

// ContentType implements Payload.
func (RulePayload) ContentType() ContentType { return ContentTypeRule }

// ExerciseOptions decodes from either a JSON array of strings or a JSON
// string containing an encoded array, mirroring RuleExamples.
type ExerciseOptions []string

// UnmarshalJSON implements json.Unmarshaler.
func (o *ExerciseOptions) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = []byte(encoded)
	}

	var options []string
	if err := json.Unmarshal(data, &options); err != nil {
		return fmt.Errorf("options must be an array of strings: %w", err)
	}

	*o = options
	return nil
}

// ExercisePayload is a multiple-choice exercise. CorrectIndex is a pointer
// so that "absent" and "zero" are distinguishable; it must decode from a
// JSON number.
type ExercisePayload struct {
	Prompt       string          `json:"prompt"`
	Options      ExerciseOptions `json:"options,omitempty"`
	CorrectIndex *int            `json:"correct_index,omitempty"`
	Language     string          `json:"language"`
	Level        string          `json:"level"`
}

// ContentType implements Payload.
func (ExercisePayload) ContentType() ContentType { return ContentTypeExercise }

// DecodePayload decodes raw JSONB into the payload variant for the given
// content type. Returns ErrInvalidContentType for unknown types; decode
// failures are wrapped with the content type for context.
func DecodePayload(contentType ContentType, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s payload is empty", contentType)
	}

	var (
		payload Payload
		err     error
	)

	switch contentType {
	case ContentTypeMeaning:
		var p MeaningPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case ContentTypeUtterance:
		var p UtterancePayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case ContentTypeRule:
		var p RulePayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case ContentTypeExercise:
		var p ExercisePayload
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, contentType)
	}

	if err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", contentType, err)
	}

	return payload, nil
}

// PayloadLanguage returns the language code carried by any payload
// variant.
func PayloadLanguage(payload Payload) string {
	switch p := payload.(type) {
	case MeaningPayload:
		return p.Language
	case UtterancePayload:
		return p.Language
	case RulePayload:
		return p.Language
	case ExercisePayload:
		return p.Language
	default:
		return ""
	}
}

// PayloadLevel returns the CEFR level carried by any payload variant, or
// "" when absent.
func PayloadLevel(payload Payload) string {
	switch p := payload.(type) {
	case MeaningPayload:
		return p.Level
	case UtterancePayload:
		return p.Level
	case RulePayload:
		return p.Level
	case ExercisePayload:
		return p.Level
	default:
		return ""
	}
}

// EncodePayload marshals a payload variant back into JSONB form.
func EncodePayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", payload.ContentType(), err)
	}
	return raw, nil
}
