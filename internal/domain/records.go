package domain

import (
	"time"

	"github.com/google/uuid"
)

// FailureClass distinguishes what kind of failure a record describes.
// Only content failures count toward the three-strikes deletion policy;
// a storage outage must never cost a fixable draft a strike.
type FailureClass string

// Failure classes.
const (
	FailureClassContent        FailureClass = "content"
	FailureClassInfrastructure FailureClass = "infrastructure"
)

// FailureRecord is an append-only record of a processing failure, kept for
// operator visibility and for the three-strikes deletion policy on drafts.
type FailureRecord struct {
	ID           uuid.UUID    `json:"id"`
	ItemID       uuid.UUID    `json:"item_id"`
	ContentType  ContentType  `json:"content_type"`
	Stage        Stage        `json:"stage"`
	Class        FailureClass `json:"class"`
	ErrorMessage string       `json:"error_message"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewFailureRecord creates a failure record for the given item and stage.
func NewFailureRecord(itemID uuid.UUID, contentType ContentType, stage Stage, class FailureClass, message string) *FailureRecord {
	return &FailureRecord{
		ID:           uuid.New(),
		ItemID:       itemID,
		ContentType:  contentType,
		Stage:        stage,
		Class:        class,
		ErrorMessage: message,
		CreatedAt:    time.Now().UTC(),
	}
}

// Metric is one append-only batch-processing measurement, aggregated
// externally for dashboards.
type Metric struct {
	ID             uuid.UUID   `json:"id"`
	Stage          Stage       `json:"stage"`
	ContentType    ContentType `json:"content_type"`
	ItemsProcessed int         `json:"items_processed"`
	ItemsFailed    int         `json:"items_failed"`
	AvgDurationMs  int64       `json:"avg_duration_ms"`
	RecordedAt     time.Time   `json:"recorded_at"`
}

// NewMetric creates a metric record for the given stage and content type.
func NewMetric(stage Stage, contentType ContentType, processed, failed int, avgDurationMs int64) *Metric {
	return &Metric{
		ID:             uuid.New(),
		Stage:          stage,
		ContentType:    contentType,
		ItemsProcessed: processed,
		ItemsFailed:    failed,
		AvgDurationMs:  avgDurationMs,
		RecordedAt:     time.Now().UTC(),
	}
}

// ReviewQueueEntry is one item awaiting manual operator review. Entries
// are upserted per item: re-queueing overwrites the priority rather than
// duplicating the row. Lower priority numbers are reviewed first.
type ReviewQueueEntry struct {
	ItemID      uuid.UUID   `json:"item_id"`
	ContentType ContentType `json:"content_type"`
	Priority    int         `json:"priority"`
	QueuedAt    time.Time   `json:"queued_at"`
}
