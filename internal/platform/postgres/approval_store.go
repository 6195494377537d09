package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// approvedCountQueries maps each content type to its approved-corpus count
// query for a given language.
var approvedCountQueries = map[domain.ContentType]string{
	domain.ContentTypeMeaning:   `SELECT COUNT(*) FROM meanings WHERE language = $1`,
	domain.ContentTypeUtterance: `SELECT COUNT(*) FROM utterances WHERE language = $1`,
	domain.ContentTypeRule:      `SELECT COUNT(*) FROM grammar_rules WHERE language = $1`,
	domain.ContentTypeExercise:  `SELECT COUNT(*) FROM exercises WHERE language = $1`,
}

// PostgresApprovalStore implements the store.ApprovalStore interface.
type PostgresApprovalStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresApprovalStore creates a new PostgreSQL implementation of the
// ApprovalStore interface. If logger is nil, a default logger will be used.
func NewPostgresApprovalStore(db store.DBTX, logger *slog.Logger) *PostgresApprovalStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresApprovalStore{
		db:     db,
		logger: logger.With(slog.String("component", "approval_store")),
	}
}

// Ensure PostgresApprovalStore implements store.ApprovalStore
var _ store.ApprovalStore = (*PostgresApprovalStore)(nil)

// ApprovedCount implements store.ApprovalStore.ApprovedCount.
func (s *PostgresApprovalStore) ApprovedCount(ctx context.Context, contentType domain.ContentType, language string) (int, error) {
	query, ok := approvedCountQueries[contentType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidContentType, contentType)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, language).Scan(&count); err != nil {
		return 0, fmt.Errorf("approved count query failed: %w", MapError(err))
	}

	return count, nil
}

// QueueForReview implements store.ApprovalStore.QueueForReview. The queue
// is keyed by item id: re-queueing overwrites priority and timestamp
// instead of duplicating the entry.
func (s *PostgresApprovalStore) QueueForReview(ctx context.Context, entry *domain.ReviewQueueEntry) error {
	query := `
		INSERT INTO review_queue (item_id, content_type, priority, queued_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE
		SET priority = EXCLUDED.priority,
		    queued_at = EXCLUDED.queued_at
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ItemID,
		entry.ContentType,
		entry.Priority,
		entry.QueuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to queue item for review: %w", MapError(err))
	}

	s.logger.Debug("review queue entry upserted",
		slog.String("item_id", entry.ItemID.String()),
		slog.Int("priority", entry.Priority))

	return nil
}
