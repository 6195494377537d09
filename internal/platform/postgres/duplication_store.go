package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// findSimilarLimit caps how many fuzzy matches a single lookup returns.
const findSimilarLimit = 20

// approvedTextColumns maps each content type to the permanent table and
// column holding its primary text, used for both exact and fuzzy lookups.
var approvedTextColumns = map[domain.ContentType]struct {
	table  string
	column string
}{
	domain.ContentTypeMeaning:   {table: "meanings", column: "word"},
	domain.ContentTypeUtterance: {table: "utterances", column: "text"},
	domain.ContentTypeRule:      {table: "grammar_rules", column: "title"},
	domain.ContentTypeExercise:  {table: "exercises", column: "prompt"},
}

// PostgresDuplicationStore implements the store.DuplicationStore interface.
// Fuzzy matching uses the pg_trgm similarity() function; the initial
// migration enables the extension and creates trigram indexes on the
// text columns.
type PostgresDuplicationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDuplicationStore creates a new PostgreSQL implementation of
// the DuplicationStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresDuplicationStore(db store.DBTX, logger *slog.Logger) *PostgresDuplicationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDuplicationStore{
		db:     db,
		logger: logger.With(slog.String("component", "duplication_store")),
	}
}

// Ensure PostgresDuplicationStore implements store.DuplicationStore
var _ store.DuplicationStore = (*PostgresDuplicationStore)(nil)

// FindExactMatch implements store.DuplicationStore.FindExactMatch.
// Returns store.ErrNotFound when no approved record matches.
func (s *PostgresDuplicationStore) FindExactMatch(ctx context.Context, text, language string, contentType domain.ContentType) (uuid.UUID, error) {
	target, ok := approvedTextColumns[contentType]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidContentType, contentType)
	}

	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE %s = $1 AND language = $2
		LIMIT 1
	`, target.table, target.column)

	var id uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, text, language).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, store.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("exact match query failed: %w", MapError(err))
	}

	return id, nil
}

// FindSimilar implements store.DuplicationStore.FindSimilar, returning
// approved records at least threshold-similar under the trigram metric,
// most similar first.
func (s *PostgresDuplicationStore) FindSimilar(ctx context.Context, text, language string, contentType domain.ContentType, threshold float64) ([]store.SimilarMatch, error) {
	target, ok := approvedTextColumns[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidContentType, contentType)
	}

	query := fmt.Sprintf(`
		SELECT id, %[2]s, similarity(%[2]s, $1) AS score
		FROM %[1]s
		WHERE language = $2 AND similarity(%[2]s, $1) >= $3
		ORDER BY score DESC
		LIMIT %[3]d
	`, target.table, target.column, findSimilarLimit)

	rows, err := s.db.QueryContext(ctx, query, text, language, threshold)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var matches []store.SimilarMatch
	for rows.Next() {
		var match store.SimilarMatch
		if err := rows.Scan(&match.ID, &match.Text, &match.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similarity rows: %w", err)
	}

	return matches, nil
}
