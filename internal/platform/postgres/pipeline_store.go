package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/platform/logger"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// Stage table names. One physically distinct table per non-terminal stage;
// approved content lives in the per-type permanent tables.
const (
	draftsTable     = "content_drafts"
	candidatesTable = "content_candidates"
	validatedTable  = "content_validated"
)

// PostgresPipelineStore implements the store.PipelineStore interface using
// a PostgreSQL database as the storage backend. It holds a *sql.DB rather
// than a DBTX because stage moves open their own transactions.
type PostgresPipelineStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPipelineStore creates a new PostgreSQL implementation of the
// PipelineStore interface. If logger is nil, a default logger will be used.
func NewPostgresPipelineStore(db *sql.DB, logger *slog.Logger) *PostgresPipelineStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPipelineStore{
		db:     db,
		logger: logger.With(slog.String("component", "pipeline_store")),
	}
}

// Ensure PostgresPipelineStore implements store.PipelineStore
var _ store.PipelineStore = (*PostgresPipelineStore)(nil)

// FetchDrafts implements store.PipelineStore.FetchDrafts.
func (s *PostgresPipelineStore) FetchDrafts(ctx context.Context, limit int) ([]*domain.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, id AS draft_id, content_type, payload, source, created_at, updated_at
		FROM %s
		ORDER BY created_at ASC
		LIMIT $1
	`, draftsTable)

	return s.fetchItems(ctx, query, domain.StageDraft, limit)
}

// FetchCandidates implements store.PipelineStore.FetchCandidates.
func (s *PostgresPipelineStore) FetchCandidates(ctx context.Context, limit int) ([]*domain.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, draft_id, content_type, payload, source, created_at, updated_at
		FROM %s
		ORDER BY created_at ASC
		LIMIT $1
	`, candidatesTable)

	return s.fetchItems(ctx, query, domain.StageCandidate, limit)
}

// FetchValidated implements store.PipelineStore.FetchValidated.
func (s *PostgresPipelineStore) FetchValidated(ctx context.Context, limit int) ([]*domain.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, draft_id, content_type, payload, source, created_at, updated_at
		FROM %s
		ORDER BY created_at ASC
		LIMIT $1
	`, validatedTable)

	return s.fetchItems(ctx, query, domain.StageValidated, limit)
}

// fetchItems runs one of the stage fetch queries and scans the rows into
// domain items.
func (s *PostgresPipelineStore) fetchItems(ctx context.Context, query string, stage domain.Stage, limit int) ([]*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to fetch stage items",
			slog.String("stage", stage.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch %s items: %w", stage, MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.Item
	for rows.Next() {
		var (
			item      domain.Item
			payload   []byte
			source    []byte
			createdAt time.Time
			updatedAt time.Time
		)

		if err := rows.Scan(&item.ID, &item.DraftID, &item.ContentType, &payload, &source, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s item row: %w", stage, err)
		}

		item.Stage = stage
		item.Payload = payload
		item.CreatedAt = createdAt
		item.UpdatedAt = updatedAt

		if len(source) > 0 {
			if err := json.Unmarshal(source, &item.Source); err != nil {
				return nil, fmt.Errorf("failed to decode source metadata for item %s: %w", item.ID, err)
			}
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s item rows: %w", stage, err)
	}

	return items, nil
}

// MoveToCandidates implements store.PipelineStore.MoveToCandidates. The
// candidate row gets a fresh id; the lineage reference points back at the
// draft being consumed.
func (s *PostgresPipelineStore) MoveToCandidates(ctx context.Context, item *domain.Item) error {
	source, err := json.Marshal(item.Source)
	if err != nil {
		return fmt.Errorf("failed to encode source metadata: %w", err)
	}

	now := time.Now().UTC()
	candidateID := uuid.New()

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		insert := fmt.Sprintf(`
			INSERT INTO %s (id, draft_id, content_type, payload, source, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, candidatesTable)

		if _, err := tx.ExecContext(ctx, insert,
			candidateID,
			item.ID,
			item.ContentType,
			[]byte(item.Payload),
			source,
			now,
			now,
		); err != nil {
			return fmt.Errorf("failed to insert candidate: %w", MapError(err))
		}

		del := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, draftsTable)
		result, err := tx.ExecContext(ctx, del, item.ID)
		if err != nil {
			return fmt.Errorf("failed to delete draft: %w", MapError(err))
		}

		return CheckRowsAffected(result, store.ErrDraftNotFound)
	})
}

// MoveToValidated implements store.PipelineStore.MoveToValidated. The
// lineage reference is copied forward from the candidate row rather than
// re-derived.
func (s *PostgresPipelineStore) MoveToValidated(ctx context.Context, item *domain.Item) error {
	source, err := json.Marshal(item.Source)
	if err != nil {
		return fmt.Errorf("failed to encode source metadata: %w", err)
	}

	now := time.Now().UTC()
	validatedID := uuid.New()

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		insert := fmt.Sprintf(`
			INSERT INTO %s (id, draft_id, content_type, payload, source, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, validatedTable)

		if _, err := tx.ExecContext(ctx, insert,
			validatedID,
			item.DraftID,
			item.ContentType,
			[]byte(item.Payload),
			source,
			now,
			now,
		); err != nil {
			return fmt.Errorf("failed to insert validated item: %w", MapError(err))
		}

		del := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, candidatesTable)
		result, err := tx.ExecContext(ctx, del, item.ID)
		if err != nil {
			return fmt.Errorf("failed to delete candidate: %w", MapError(err))
		}

		return CheckRowsAffected(result, store.ErrCandidateNotFound)
	})
}

// CopyToApproved implements store.PipelineStore.CopyToApproved: the
// payload is mapped into the permanent table for its content type and the
// validated row is deleted, atomically. The permanent row is keyed by the
// item's lineage id, not a fresh one: producers reference companion items
// by draft id (an utterance payload names its meaning that way), and those
// references must stay resolvable after approval.
func (s *PostgresPipelineStore) CopyToApproved(ctx context.Context, item *domain.Item) (uuid.UUID, error) {
	payload, err := item.DecodePayload()
	if err != nil {
		return uuid.Nil, fmt.Errorf("cannot approve item with undecodable payload: %w", err)
	}

	if exercise, ok := payload.(domain.ExercisePayload); ok && exercise.CorrectIndex == nil {
		return uuid.Nil, fmt.Errorf("cannot approve exercise %s without a correct_index", item.ID)
	}

	permanentID := approvedID(item)
	now := time.Now().UTC()

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertApproved(ctx, tx, permanentID, payload, now); err != nil {
			return err
		}

		del := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, validatedTable)
		result, err := tx.ExecContext(ctx, del, item.ID)
		if err != nil {
			return fmt.Errorf("failed to delete validated item: %w", MapError(err))
		}

		return CheckRowsAffected(result, store.ErrValidatedNotFound)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return permanentID, nil
}

// approvedID picks the permanent row id: the lineage id, which is stable
// across the item's whole pipeline life while the row id changes on every
// stage move. Items predating lineage tracking fall back to the row id.
func approvedID(item *domain.Item) uuid.UUID {
	if item.DraftID != uuid.Nil {
		return item.DraftID
	}
	return item.ID
}

// insertApproved maps a payload variant onto its permanent table schema.
func insertApproved(ctx context.Context, tx *sql.Tx, id uuid.UUID, payload domain.Payload, now time.Time) error {
	switch p := payload.(type) {
	case domain.MeaningPayload:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meanings (id, word, definition, language, level, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, p.Word, p.Definition, p.Language, p.Level, now)
		if err != nil {
			return fmt.Errorf("failed to insert approved meaning: %w", MapError(err))
		}

	case domain.UtterancePayload:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO utterances (id, text, translation, language, level, meaning_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, p.Text, nullableString(p.Translation), p.Language, nullableString(p.Level), p.MeaningID, now)
		if err != nil {
			return fmt.Errorf("failed to insert approved utterance: %w", MapError(err))
		}

	case domain.RulePayload:
		examples, err := json.Marshal(p.Examples)
		if err != nil {
			return fmt.Errorf("failed to encode rule examples: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO grammar_rules (id, title, explanation, language, level, category, examples, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, p.Title, p.Explanation, p.Language, p.Level, nullableString(p.Category), examples, now)
		if err != nil {
			return fmt.Errorf("failed to insert approved rule: %w", MapError(err))
		}

	case domain.ExercisePayload:
		options, err := json.Marshal(p.Options)
		if err != nil {
			return fmt.Errorf("failed to encode exercise options: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO exercises (id, prompt, options, correct_index, language, level, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, p.Prompt, options, *p.CorrectIndex, p.Language, p.Level, now)
		if err != nil {
			return fmt.Errorf("failed to insert approved exercise: %w", MapError(err))
		}

	default:
		return fmt.Errorf("%w: no permanent table for payload type %T", domain.ErrInvalidContentType, payload)
	}

	return nil
}

// DeleteDraft implements store.PipelineStore.DeleteDraft.
func (s *PostgresPipelineStore) DeleteDraft(ctx context.Context, itemID uuid.UUID) error {
	return s.deleteFrom(ctx, draftsTable, itemID, store.ErrDraftNotFound)
}

// DeleteCandidate implements store.PipelineStore.DeleteCandidate.
func (s *PostgresPipelineStore) DeleteCandidate(ctx context.Context, itemID uuid.UUID) error {
	return s.deleteFrom(ctx, candidatesTable, itemID, store.ErrCandidateNotFound)
}

// DeleteValidated implements store.PipelineStore.DeleteValidated.
func (s *PostgresPipelineStore) DeleteValidated(ctx context.Context, itemID uuid.UUID) error {
	return s.deleteFrom(ctx, validatedTable, itemID, store.ErrValidatedNotFound)
}

func (s *PostgresPipelineStore) deleteFrom(ctx context.Context, table string, itemID uuid.UUID, notFoundErr error) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)

	result, err := s.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, MapError(err))
	}

	return CheckRowsAffected(result, notFoundErr)
}

// RecordFailure implements store.PipelineStore.RecordFailure.
func (s *PostgresPipelineStore) RecordFailure(ctx context.Context, record *domain.FailureRecord) error {
	query := `
		INSERT INTO pipeline_failures (id, item_id, content_type, stage, error_class, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.ItemID,
		record.ContentType,
		record.Stage,
		record.Class,
		record.ErrorMessage,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", MapError(err))
	}

	return nil
}

// NormalizationFailureCount implements
// store.PipelineStore.NormalizationFailureCount. Only content-class
// failures count; retry exhaustion during an outage is recorded under the
// same item and stage but must not push a draft toward deletion.
func (s *PostgresPipelineStore) NormalizationFailureCount(ctx context.Context, itemID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM pipeline_failures
		WHERE item_id = $1 AND stage = $2 AND error_class = $3
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, itemID, domain.StageDraft, domain.FailureClassContent).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count normalization failures: %w", MapError(err))
	}

	return count, nil
}

// RecordMetric implements store.PipelineStore.RecordMetric.
func (s *PostgresPipelineStore) RecordMetric(ctx context.Context, metric *domain.Metric) error {
	query := `
		INSERT INTO pipeline_metrics (id, stage, content_type, items_processed, items_failed, avg_duration_ms, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		metric.ID,
		metric.Stage,
		metric.ContentType,
		metric.ItemsProcessed,
		metric.ItemsFailed,
		metric.AvgDurationMs,
		metric.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", MapError(err))
	}

	return nil
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
