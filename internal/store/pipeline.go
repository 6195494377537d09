package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
)

// PipelineStore defines the persistence interface the orchestrator drives
// batches through. Fetches are oldest-first so that items are retried in
// FIFO order across batch cycles.
type PipelineStore interface {
	// FetchDrafts retrieves up to limit DRAFT items, oldest first.
	FetchDrafts(ctx context.Context, limit int) ([]*domain.Item, error)

	// FetchCandidates retrieves up to limit CANDIDATE items, oldest first.
	FetchCandidates(ctx context.Context, limit int) ([]*domain.Item, error)

	// FetchValidated retrieves up to limit VALIDATED items, oldest first.
	FetchValidated(ctx context.Context, limit int) ([]*domain.Item, error)

	// MoveToCandidates atomically inserts a CANDIDATE row carrying the
	// item's (normalized) payload and lineage reference and deletes the
	// originating draft. Returns ErrDraftNotFound if the draft row no
	// longer exists.
	MoveToCandidates(ctx context.Context, item *domain.Item) error

	// MoveToValidated atomically inserts a VALIDATED row, propagating the
	// lineage reference, and deletes the candidate row. Returns
	// ErrCandidateNotFound if the candidate row no longer exists.
	MoveToValidated(ctx context.Context, item *domain.Item) error

	// CopyToApproved maps the item's payload into the permanent table for
	// its content type, deletes the validated row, and returns the
	// permanent id. The permanent row is keyed by the item's lineage id so
	// that payload references held by other items (an utterance's
	// meaning_id) survive approval. Returns ErrValidatedNotFound if the
	// validated row no longer exists.
	CopyToApproved(ctx context.Context, item *domain.Item) (uuid.UUID, error)

	// DeleteDraft permanently removes a draft row. Used by the
	// three-strikes normalization policy.
	DeleteDraft(ctx context.Context, itemID uuid.UUID) error

	// DeleteCandidate permanently removes a candidate row.
	DeleteCandidate(ctx context.Context, itemID uuid.UUID) error

	// DeleteValidated permanently removes a validated row.
	DeleteValidated(ctx context.Context, itemID uuid.UUID) error

	// RecordFailure appends a failure record.
	RecordFailure(ctx context.Context, record *domain.FailureRecord) error

	// NormalizationFailureCount returns how many DRAFT-stage failures have
	// been recorded for the given item.
	NormalizationFailureCount(ctx context.Context, itemID uuid.UUID) (int, error)

	// RecordMetric appends a batch-processing metric.
	RecordMetric(ctx context.Context, metric *domain.Metric) error
}
