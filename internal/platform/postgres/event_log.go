package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaflow/content-pipeline/internal/events"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// PostgresEventLog persists stage-transition events into the append-only
// pipeline_events table. It implements events.Handler and is registered on
// the emitter at startup, making the audit trail durable and queryable.
type PostgresEventLog struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEventLog creates a new event log writer. If logger is nil, a
// default logger will be used.
func NewPostgresEventLog(db store.DBTX, logger *slog.Logger) *PostgresEventLog {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEventLog{
		db:     db,
		logger: logger.With(slog.String("component", "event_log")),
	}
}

// Ensure PostgresEventLog implements events.Handler
var _ events.Handler = (*PostgresEventLog)(nil)

// HandleEvent implements events.Handler by appending the transition to the
// audit table.
func (l *PostgresEventLog) HandleEvent(ctx context.Context, event *events.StageTransitionEvent) error {
	query := `
		INSERT INTO pipeline_events (id, item_id, draft_id, content_type, from_stage, to_stage, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := l.db.ExecContext(ctx, query,
		event.ID,
		event.ItemID,
		event.DraftID,
		event.ContentType,
		event.FromStage,
		event.ToStage,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append pipeline event: %w", MapError(err))
	}

	l.logger.Debug("stage transition recorded",
		slog.String("item_id", event.ItemID.String()),
		slog.String("from_stage", event.FromStage.String()),
		slog.String("to_stage", event.ToStage.String()))

	return nil
}
