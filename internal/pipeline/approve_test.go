package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/content-pipeline/internal/domain"
)

// fakeApprovalStore serves a fixed approved count and captures queued
// review entries.
type fakeApprovalStore struct {
	approvedCount int
	countErr      error
	queueErr      error

	queued []*domain.ReviewQueueEntry
}

func (f *fakeApprovalStore) ApprovedCount(ctx context.Context, contentType domain.ContentType, language string) (int, error) {
	return f.approvedCount, f.countErr
}

func (f *fakeApprovalStore) QueueForReview(ctx context.Context, entry *domain.ReviewQueueEntry) error {
	if f.queueErr != nil {
		return f.queueErr
	}
	f.queued = append(f.queued, entry)
	return nil
}

func validatedItem(t *testing.T, contentType domain.ContentType, payload string, confidence float64) *domain.Item {
	t.Helper()

	item := draftItem(t, contentType, payload)
	item.Stage = domain.StageValidated
	item.Source.Confidence = &confidence
	return item
}

const meaningPayloadJSON = `{"word":"hello","definition":"A friendly greeting.","language":"EN","level":"A1"}`

func TestApproveAutoApprovesHighConfidenceMeaning(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: 100}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.95)

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, store.queued)
}

func TestApproveLowConfidenceRoutesToReview(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: 100}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.5)

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, result.Errors, "Item requires manual operator review")

	require.Len(t, store.queued, 1)
	assert.Equal(t, item.ID, store.queued[0].ItemID)
	assert.Equal(t, priorityMeaning, store.queued[0].Priority)
}

func TestApproveConfidenceBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: 100}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	// Exactly 0.7 is auto-approvable; only strictly below goes to review.
	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.7)

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestApproveMissingConfidenceSkipsConfidenceCheck(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: 100}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	item := draftItem(t, domain.ContentTypeMeaning, meaningPayloadJSON)
	item.Stage = domain.StageValidated

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Success, "unreported confidence must not count as low")
}

func TestApproveRulesAndExercisesAlwaysReviewed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		contentType  domain.ContentType
		payload      string
		wantPriority int
	}{
		{
			name:         "plain rule",
			contentType:  domain.ContentTypeRule,
			payload:      `{"title":"Plurals","explanation":"Add -s.","language":"EN","level":"A1","examples":[{"correct":"cats"}]}`,
			wantPriority: priorityRule,
		},
		{
			name:         "orthography rule jumps the queue",
			contentType:  domain.ContentTypeRule,
			payload:      `{"title":"Accents","explanation":"Stress marks.","language":"ES","level":"B1","category":"orthography","examples":[{"correct":"está"}]}`,
			wantPriority: priorityOrthographyRule,
		},
		{
			name:         "exercise",
			contentType:  domain.ContentTypeExercise,
			payload:      `{"prompt":"Pick one.","options":["go","went"],"correct_index":1,"language":"EN","level":"A1"}`,
			wantPriority: priorityExercise,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeApprovalStore{approvedCount: 1000}
			step := NewApprovalStep(store, NeverSample(), false, nil)

			item := validatedItem(t, tc.contentType, tc.payload, 0.99)

			result, err := step.Approve(context.Background(), item)
			require.NoError(t, err)
			require.False(t, result.Success)

			require.Len(t, store.queued, 1)
			assert.Equal(t, tc.wantPriority, store.queued[0].Priority)
		})
	}
}

func TestApproveColdStartGuard(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: coldStartThreshold - 1}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.95)

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Len(t, store.queued, 1)
}

func TestApproveAuditSampling(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: 100}
	step := NewApprovalStep(store, AlwaysSample(), false, nil)

	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.95)

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Len(t, store.queued, 1)
	assert.Equal(t, priorityMeaning, store.queued[0].Priority)
}

func TestApproveAutoApprovalOverrideBypassesEverything(t *testing.T) {
	t.Parallel()

	store := &fakeApprovalStore{approvedCount: 0}
	step := NewApprovalStep(store, AlwaysSample(), true, nil)

	// Low confidence, rule type, empty corpus, forced sampling: every
	// heuristic would demand review, and none of them run.
	item := validatedItem(t, domain.ContentTypeRule,
		`{"title":"Plurals","explanation":"Add -s.","language":"EN","level":"A1","examples":[{"correct":"cats"}]}`, 0.1)

	result, err := step.Approve(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, store.queued)
}

func TestApprovePropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	countErr := errors.New("connection reset")
	store := &fakeApprovalStore{countErr: countErr}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.95)

	_, err := step.Approve(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, countErr)
}

func TestApproveQueueWriteFailureIsInfrastructure(t *testing.T) {
	t.Parallel()

	queueErr := errors.New("disk full")
	store := &fakeApprovalStore{approvedCount: 100, queueErr: queueErr}
	step := NewApprovalStep(store, NeverSample(), false, nil)

	item := validatedItem(t, domain.ContentTypeMeaning, meaningPayloadJSON, 0.2)

	_, err := step.Approve(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, queueErr)
}

func TestSeededSamplerIsDeterministic(t *testing.T) {
	t.Parallel()

	first := NewSeededSampler(42)
	second := NewSeededSampler(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, first.Sample(0.1), second.Sample(0.1))
	}
}
