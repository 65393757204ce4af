package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
)

var partitions = []string{"REG2017", "BRGREG", "MONO"}

func TestLoadFileAndApply(t *testing.T) {
	ctx := context.Background()
	fx, err := LoadFile("testdata/fixtures.yaml")
	require.NoError(t, err)
	require.NoError(t, fx.Validate(partitions))

	store := docstore.NewMemory()
	counts, err := Apply(ctx, store, fx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Labels: 2, Tasks: 2, Sessions: 2}, counts)

	repo := repository.New(store, repository.Options{Partitions: partitions})

	id, ok, err := repo.SharedLabelID(ctx, "運用")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ops", id)

	task, err := repo.GetTask(ctx, "MONO", "t1")
	require.NoError(t, err)
	assert.Equal(t, "月次運用レポート", task.Title)
	assert.Equal(t, []string{"u1"}, task.AssigneeIDs)
	require.NotNil(t, task.ITUpDate)

	s, err := repo.GetSession(ctx, "MONO", "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(5400), s.DurationSec)

	sessions, err := repo.SessionsForTask(ctx, "REG2017", "t2")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(125), sessions[0].EffectiveDurationSec())
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	fx, err := Parse(strings.NewReader(`
labels:
  - id: ops
    name: 運用
`))
	require.NoError(t, err)

	store := docstore.NewMemory()
	_, err = Apply(ctx, store, fx)
	require.NoError(t, err)
	_, err = Apply(ctx, store, fx)
	require.NoError(t, err)

	docs, err := store.Query(ctx, docstore.From(repository.LabelsCollection))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"unknown task partition", "tasks:\n  NOPE:\n    - title: x\n", models.ErrUnknownPartition},
		{"unknown session partition", "sessions:\n  - projectType: NOPE\n    taskId: t\n    userId: u\n    startedAt: 2025-01-01T00:00:00Z\n", models.ErrUnknownPartition},
		{"session missing user", "sessions:\n  - projectType: MONO\n    taskId: t\n    startedAt: 2025-01-01T00:00:00Z\n", models.ErrMissingFields},
		{"inverted session", "sessions:\n  - projectType: MONO\n    taskId: t\n    userId: u\n    startedAt: 2025-01-01T01:00:00Z\n    endedAt: 2025-01-01T00:00:00Z\n", models.ErrInvalidSessionRange},
		{"label without name", "labels:\n  - id: x\n", models.ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, err := Parse(strings.NewReader(tt.yaml))
			require.NoError(t, err)
			assert.ErrorIs(t, fx.Validate(partitions), tt.wantErr)
		})
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("projects: []\n"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	fx, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Sessions)
}
