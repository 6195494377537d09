package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/content-pipeline/internal/domain"
)

func TestStageIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stage domain.Stage
		want  bool
	}{
		{name: "draft", stage: domain.StageDraft, want: true},
		{name: "candidate", stage: domain.StageCandidate, want: true},
		{name: "validated", stage: domain.StageValidated, want: true},
		{name: "approved", stage: domain.StageApproved, want: true},
		{name: "empty", stage: domain.Stage(""), want: false},
		{name: "unknown", stage: domain.Stage("PUBLISHED"), want: false},
		{name: "lowercase", stage: domain.Stage("draft"), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.stage.IsValid())
		})
	}
}

func TestStageNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stage   domain.Stage
		want    domain.Stage
		wantErr error
	}{
		{name: "draft promotes to candidate", stage: domain.StageDraft, want: domain.StageCandidate},
		{name: "candidate promotes to validated", stage: domain.StageCandidate, want: domain.StageValidated},
		{name: "validated promotes to approved", stage: domain.StageValidated, want: domain.StageApproved},
		{name: "approved is terminal", stage: domain.StageApproved, wantErr: domain.ErrTerminalStage},
		{name: "unknown stage", stage: domain.Stage("PUBLISHED"), wantErr: domain.ErrInvalidStage},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			next, err := tc.stage.Next()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, next)
		})
	}
}

func TestStageTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.StageDraft.Terminal())
	assert.False(t, domain.StageCandidate.Terminal())
	assert.False(t, domain.StageValidated.Terminal())
	assert.True(t, domain.StageApproved.Terminal())
}
