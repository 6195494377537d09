package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/content-pipeline/internal/domain"
)

// openIdle returns a *sql.DB that never connects. sql.Open is lazy, so
// store methods that fail before touching the database can be exercised
// without a server.
func openIdle(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", "postgres://localhost:1/unreachable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func validatedStoreItem(t *testing.T, contentType domain.ContentType, payload string) *domain.Item {
	t.Helper()

	return &domain.Item{
		ID:          uuid.New(),
		DraftID:     uuid.New(),
		ContentType: contentType,
		Stage:       domain.StageValidated,
		Payload:     json.RawMessage(payload),
	}
}

func TestApprovedIDKeepsLineage(t *testing.T) {
	t.Parallel()

	item := validatedStoreItem(t, domain.ContentTypeMeaning,
		`{"word":"hello","definition":"A friendly greeting.","language":"EN","level":"A1"}`)

	assert.Equal(t, item.DraftID, approvedID(item),
		"the permanent row keeps the id producers reference")
}

func TestApprovedIDFallsBackToItemID(t *testing.T) {
	t.Parallel()

	item := validatedStoreItem(t, domain.ContentTypeMeaning,
		`{"word":"hello","definition":"A friendly greeting.","language":"EN","level":"A1"}`)
	item.DraftID = uuid.Nil

	assert.Equal(t, item.ID, approvedID(item))
}

func TestCopyToApprovedRejectsExerciseWithoutCorrectIndex(t *testing.T) {
	t.Parallel()

	s := NewPostgresPipelineStore(openIdle(t), nil)
	item := validatedStoreItem(t, domain.ContentTypeExercise,
		`{"prompt":"Pick the greeting","options":["hello","table"],"language":"EN","level":"A1"}`)

	_, err := s.CopyToApproved(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correct_index")
}

func TestCopyToApprovedRejectsUndecodablePayload(t *testing.T) {
	t.Parallel()

	s := NewPostgresPipelineStore(openIdle(t), nil)
	item := validatedStoreItem(t, domain.ContentTypeMeaning, `[1,2,3]`)

	_, err := s.CopyToApproved(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undecodable payload")
}
