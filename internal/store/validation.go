package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
)

// ValidationStore defines the duplicate and referential-integrity lookups
// the validation step depends on. All lookups exclude the item under
// validation via excludeID where relevant, so an item never collides with
// itself.
type ValidationStore interface {
	// MeaningDuplicateExists reports whether a meaning with the same
	// (word, language, level) already exists in the draft, candidate, or
	// approved storage.
	MeaningDuplicateExists(ctx context.Context, word, language, level string, excludeID uuid.UUID) (bool, error)

	// MeaningExists reports whether the given meaning id resolves to an
	// approved meaning or a candidate meaning still in flight.
	MeaningExists(ctx context.Context, meaningID uuid.UUID) (bool, error)

	// UtteranceDuplicateExists reports whether an utterance with the same
	// (text, language) already exists in the draft or approved storage.
	UtteranceDuplicateExists(ctx context.Context, text, language string, excludeID uuid.UUID) (bool, error)

	// RuleDuplicateExists reports whether a rule with the same
	// (title, language, level) already exists in the draft or approved
	// storage.
	RuleDuplicateExists(ctx context.Context, title, language, level string, excludeID uuid.UUID) (bool, error)
}

// SimilarMatch is one fuzzy-duplicate candidate returned by
// DuplicationStore.FindSimilar, ranked by descending similarity.
type SimilarMatch struct {
	ID         uuid.UUID
	Text       string
	Similarity float64
}

// DuplicationStore exposes exact and fuzzy lookups for near-identical
// content, scoped by language and content type. The pipeline itself only
// consumes exact matches for hard rejection; the similarity ranking backs
// operator-facing near-duplicate warnings.
type DuplicationStore interface {
	// FindExactMatch returns the id of an approved record whose primary
	// text exactly equals text for the given language and content type.
	// Returns ErrNotFound when there is no match.
	FindExactMatch(ctx context.Context, text, language string, contentType domain.ContentType) (uuid.UUID, error)

	// FindSimilar returns approved records whose primary text is at least
	// threshold-similar to text under a trigram metric, most similar
	// first.
	FindSimilar(ctx context.Context, text, language string, contentType domain.ContentType, threshold float64) ([]SimilarMatch, error)
}
