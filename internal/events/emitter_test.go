package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/events"
)

// recordingHandler captures every event it receives and optionally fails.
type recordingHandler struct {
	received []*events.StageTransitionEvent
	err      error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.StageTransitionEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func testEvent(t *testing.T) *events.StageTransitionEvent {
	t.Helper()

	item, err := domain.NewDraftItem(domain.ContentTypeMeaning, []byte(`{"word":"hello"}`))
	require.NoError(t, err)

	return events.NewStageTransitionEvent(item, domain.StageDraft, domain.StageCandidate)
}

func TestNewStageTransitionEvent(t *testing.T) {
	t.Parallel()

	item, err := domain.NewDraftItem(domain.ContentTypeRule, []byte(`{"title":"articles"}`))
	require.NoError(t, err)

	event := events.NewStageTransitionEvent(item, domain.StageCandidate, domain.StageValidated)

	assert.Equal(t, item.ID, event.ItemID)
	assert.Equal(t, item.DraftID, event.DraftID)
	assert.Equal(t, domain.ContentTypeRule, event.ContentType)
	assert.Equal(t, domain.StageCandidate, event.FromStage)
	assert.Equal(t, domain.StageValidated, event.ToStage)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestInMemoryEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("delivers to all handlers", func(t *testing.T) {
		t.Parallel()

		emitter := events.NewInMemoryEmitter(logger)
		first := &recordingHandler{}
		second := &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event := testEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		require.Len(t, first.received, 1)
		require.Len(t, second.received, 1)
		assert.Equal(t, event.ID, first.received[0].ID)
	})

	t.Run("no handlers is not an error", func(t *testing.T) {
		t.Parallel()

		emitter := events.NewInMemoryEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), testEvent(t)))
	})

	t.Run("failing handler does not block others", func(t *testing.T) {
		t.Parallel()

		emitter := events.NewInMemoryEmitter(logger)
		failing := &recordingHandler{err: errors.New("audit log unavailable")}
		healthy := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		err := emitter.EmitEvent(context.Background(), testEvent(t))
		assert.Error(t, err)
		assert.Len(t, healthy.received, 1)
	})
}
