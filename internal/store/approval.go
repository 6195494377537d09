package store

import (
	"context"

	"github.com/linguaflow/content-pipeline/internal/domain"
)

// ApprovalStore defines the lookups and queue writes the approval step
// depends on.
type ApprovalStore interface {
	// ApprovedCount returns the number of already-approved items for the
	// given content type and language. Feeds the cold-start guard.
	ApprovedCount(ctx context.Context, contentType domain.ContentType, language string) (int, error)

	// QueueForReview upserts a review-queue entry for the item. Queueing
	// the same item again overwrites the priority rather than adding a
	// second row.
	QueueForReview(ctx context.Context, entry *domain.ReviewQueueEntry) error
}
