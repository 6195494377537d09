package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// PostgresValidationStore implements the store.ValidationStore interface.
// Duplicate checks scan the staging tables through JSONB payload fields
// and the permanent tables through their typed columns.
type PostgresValidationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresValidationStore creates a new PostgreSQL implementation of
// the ValidationStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresValidationStore(db store.DBTX, logger *slog.Logger) *PostgresValidationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresValidationStore{
		db:     db,
		logger: logger.With(slog.String("component", "validation_store")),
	}
}

// Ensure PostgresValidationStore implements store.ValidationStore
var _ store.ValidationStore = (*PostgresValidationStore)(nil)

// MeaningDuplicateExists implements store.ValidationStore. The check spans
// draft, candidate, and approved storage so an in-flight duplicate blocks
// promotion just like an approved one.
func (s *PostgresValidationStore) MeaningDuplicateExists(ctx context.Context, word, language, level string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM content_drafts
			WHERE content_type = 'meaning'
			  AND id <> $4
			  AND payload->>'word' = $1
			  AND payload->>'language' = $2
			  AND payload->>'level' = $3
		) OR EXISTS (
			SELECT 1 FROM content_candidates
			WHERE content_type = 'meaning'
			  AND id <> $4
			  AND payload->>'word' = $1
			  AND payload->>'language' = $2
			  AND payload->>'level' = $3
		) OR EXISTS (
			SELECT 1 FROM meanings
			WHERE word = $1 AND language = $2 AND level = $3
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, word, language, level, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("meaning duplicate query failed: %w", MapError(err))
	}

	return exists, nil
}

// MeaningExists implements store.ValidationStore. A meaning resolves if it
// is already approved or still a candidate in flight. Producers reference
// meanings by draft id; candidate rows get fresh ids on every stage move
// and approved rows are keyed by the lineage id, so both branches match on
// lineage rather than the current row id.
func (s *PostgresValidationStore) MeaningExists(ctx context.Context, meaningID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM meanings WHERE id = $1
		) OR EXISTS (
			SELECT 1 FROM content_candidates
			WHERE content_type = 'meaning' AND draft_id = $1
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, meaningID).Scan(&exists); err != nil {
		return false, fmt.Errorf("meaning existence query failed: %w", MapError(err))
	}

	return exists, nil
}

// UtteranceDuplicateExists implements store.ValidationStore.
func (s *PostgresValidationStore) UtteranceDuplicateExists(ctx context.Context, text, language string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM content_drafts
			WHERE content_type = 'utterance'
			  AND id <> $3
			  AND payload->>'text' = $1
			  AND payload->>'language' = $2
		) OR EXISTS (
			SELECT 1 FROM utterances
			WHERE text = $1 AND language = $2
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, text, language, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("utterance duplicate query failed: %w", MapError(err))
	}

	return exists, nil
}

// RuleDuplicateExists implements store.ValidationStore.
func (s *PostgresValidationStore) RuleDuplicateExists(ctx context.Context, title, language, level string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM content_drafts
			WHERE content_type = 'rule'
			  AND id <> $4
			  AND payload->>'title' = $1
			  AND payload->>'language' = $2
			  AND payload->>'level' = $3
		) OR EXISTS (
			SELECT 1 FROM grammar_rules
			WHERE title = $1 AND language = $2 AND level = $3
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, title, language, level, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("rule duplicate query failed: %w", MapError(err))
	}

	return exists, nil
}
