// Package events defines the stage-transition events the pipeline emits
// and the emitter/handler abstractions that decouple the orchestrator from
// the audit trail and any other consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linguaflow/content-pipeline/internal/domain"
)

// EventTypeStageTransition identifies a successful promotion of an item
// from one stage to the next.
const EventTypeStageTransition = "stage_transition"

// StageTransitionEvent records one promotion of a pipeline item. Events
// are append-only and back the operator-facing audit trail.
type StageTransitionEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// ItemID is the id of the item that moved. For moves out of DRAFT
	// this is the draft id; later moves carry the current row id.
	ItemID uuid.UUID `json:"item_id"`

	// DraftID is the lineage reference back to the originating draft.
	DraftID uuid.UUID `json:"draft_id"`

	// ContentType is the item's content type.
	ContentType domain.ContentType `json:"content_type"`

	// FromStage and ToStage bound the transition.
	FromStage domain.Stage `json:"from_stage"`
	ToStage   domain.Stage `json:"to_stage"`

	// OccurredAt is the timestamp when the transition completed.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewStageTransitionEvent creates a transition event for the given item
// and stage pair.
func NewStageTransitionEvent(item *domain.Item, from, to domain.Stage) *StageTransitionEvent {
	return &StageTransitionEvent{
		ID:          uuid.New(),
		ItemID:      item.ID,
		DraftID:     item.DraftID,
		ContentType: item.ContentType,
		FromStage:   from,
		ToStage:     to,
		OccurredAt:  time.Now().UTC(),
	}
}

// Handler defines an interface for components that consume transition
// events, such as the persistent audit log.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *StageTransitionEvent) error
}

// Emitter defines an interface for components that publish transition
// events. This lets the orchestrator emit without direct knowledge of
// handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *StageTransitionEvent) error
}
