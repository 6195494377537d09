package domain

import "errors"

// ContentType identifies which kind of learning item a pipeline item
// carries and therefore which payload variant and validation rules apply.
type ContentType string

// Supported content types.
const (
	ContentTypeMeaning   ContentType = "meaning"
	ContentTypeUtterance ContentType = "utterance"
	ContentTypeRule      ContentType = "rule"
	ContentTypeExercise  ContentType = "exercise"
)

// ErrInvalidContentType is returned when a content type is not one of the
// four supported kinds.
var ErrInvalidContentType = errors.New("invalid content type")

// IsValid reports whether t is a supported content type.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeMeaning, ContentTypeUtterance, ContentTypeRule, ContentTypeExercise:
		return true
	default:
		return false
	}
}

// String returns the content type name as stored and logged.
func (t ContentType) String() string {
	return string(t)
}

// supportedLanguages is the fixed set of languages the platform publishes
// content for. Validation rejects items tagged with anything else.
var supportedLanguages = map[string]bool{
	"EN": true,
	"ES": true,
	"FR": true,
	"DE": true,
	"IT": true,
	"PT": true,
	"JA": true,
	"ZH": true,
	"KO": true,
	"RU": true,
}

// cefrLevels is the CEFR proficiency scale used to tag content difficulty.
var cefrLevels = map[string]bool{
	"A0": true,
	"A1": true,
	"A2": true,
	"B1": true,
	"B2": true,
	"C1": true,
	"C2": true,
}

// IsSupportedLanguage reports whether lang is one of the platform's
// supported language codes.
func IsSupportedLanguage(lang string) bool {
	return supportedLanguages[lang]
}

// IsValidLevel reports whether level is a valid CEFR level.
func IsValidLevel(level string) bool {
	return cefrLevels[level]
}
