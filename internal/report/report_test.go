package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/testutil"
)

var (
	jst        = time.FixedZone("JST", 9*3600)
	partitions = []string{"REG2017", "BRGREG", "MONO"}
	discard    = slog.New(slog.NewTextHandler(io.Discard, nil))
	day        = time.Date(2025, 3, 10, 0, 0, 0, 0, jst)
)

func set(t *testing.T, s *docstore.Memory, col, id string, f docstore.Fields) {
	t.Helper()
	require.NoError(t, s.Set(context.Background(), col, id, f))
}

func addTask(t *testing.T, s *docstore.Memory, p, id, label, reason string) {
	t.Helper()
	set(t, s, repository.TasksPath(p), id, repository.TaskFields(models.Task{
		Title:        "task " + id,
		KubunLabelID: label,
		Over3Reason:  reason,
	}))
}

func addSession(t *testing.T, s *docstore.Memory, p, id, taskID string, start time.Time, d time.Duration, stored int64) {
	t.Helper()
	sess := models.TaskSession{ProjectType: p, TaskID: taskID, UserID: "u1", StartedAt: start, DurationSec: stored}
	if d > 0 {
		end := start.Add(d)
		sess.EndedAt = &end
	}
	set(t, s, repository.SessionsPath(p), id, repository.SessionFields(sess))
}

func seedStore(t *testing.T, indexes ...docstore.Index) *docstore.Memory {
	t.Helper()
	s := docstore.NewMemory(indexes...)
	set(t, s, repository.LabelsCollection, "ops", docstore.Fields{"name": "運用", "projectId": nil})
	set(t, s, repository.LabelsCollection, "dev", docstore.Fields{"name": "開発", "projectId": nil})

	// A: stored duration 0, recomputed from timestamps.
	addTask(t, s, "MONO", "A", "ops", "")
	addSession(t, s, "MONO", "a1", "A", day.Add(9*time.Hour), 125*time.Second, 0)
	// B: wrong label.
	addTask(t, s, "MONO", "B", "dev", "")
	addSession(t, s, "MONO", "b1", "B", day.Add(9*time.Hour), time.Hour, 3600)
	// C: only outside the window.
	addTask(t, s, "MONO", "C", "ops", "")
	addSession(t, s, "MONO", "c1", "C", day.AddDate(0, 0, -5), time.Hour, 3600)
	// D: running only.
	addTask(t, s, "MONO", "D", "ops", "")
	addSession(t, s, "MONO", "d1", "D", day.Add(10*time.Hour), 0, 0)
	// E: over the threshold with an empty justification, last session at 23:59:58.
	addTask(t, s, "REG2017", "E", "ops", "")
	addSession(t, s, "REG2017", "e1", "E", day.Add(8*time.Hour), 3*time.Hour, 10800)
	addSession(t, s, "REG2017", "e2", "E", day.Add(23*time.Hour+59*time.Minute+58*time.Second), time.Hour, 3600)
	// F: sub-brand partition.
	addTask(t, s, "BRGREG", "F", "ops", "brand launch")
	addSession(t, s, "BRGREG", "f1", "F", day.Add(9*time.Hour), 11000*time.Second, 11000)
	return s
}

func newAggregator(store docstore.Store) *Aggregator {
	repo := repository.New(store, repository.Options{Partitions: partitions, Logger: discard})
	return NewAggregator(repo, Options{
		Logger:            discard,
		SubBrandPartition: "BRGREG",
		OperationsLabel:   "運用",
		OverThresholdSec:  10800,
	})
}

func window(t *testing.T, typ Type) Request {
	t.Helper()
	from, to, err := parser.ParseRange("2025-03-10", "2025-03-10", jst, day)
	require.NoError(t, err)
	return Request{From: from, To: to, Type: typ}
}

func TestGenerate_Normal(t *testing.T) {
	r, err := newAggregator(seedStore(t)).Generate(context.Background(), window(t, TypeNormal))
	require.NoError(t, err)

	require.Len(t, r.Items, 2)
	assert.Equal(t, "E", r.Items[0].TaskID)
	assert.Equal(t, int64(14400), r.Items[0].DurationSec, "session at 23:59:58 on the to date is included")
	assert.Equal(t, "REG2017", r.Items[0].ProjectType)
	require.NotNil(t, r.Items[0].Over3Hours, "empty justification is passed through")
	assert.Equal(t, "", *r.Items[0].Over3Hours)

	assert.Equal(t, "A", r.Items[1].TaskID)
	assert.Equal(t, int64(125), r.Items[1].DurationSec)
	assert.Nil(t, r.Items[1].Over3Hours)

	assert.Equal(t, int64(14525), r.TotalDurationSec)
	assert.False(t, r.Partial())
}

func TestGenerate_BRG(t *testing.T) {
	r, err := newAggregator(seedStore(t)).Generate(context.Background(), window(t, TypeBRG))
	require.NoError(t, err)

	require.Len(t, r.Items, 1)
	assert.Equal(t, "F", r.Items[0].TaskID)
	require.NotNil(t, r.Items[0].Over3Hours)
	assert.Equal(t, "brand launch", *r.Items[0].Over3Hours)
	assert.Equal(t, int64(11000), r.TotalDurationSec)
}

func TestGenerate_IndexedAndFallbackAgree(t *testing.T) {
	ctx := context.Background()
	indexed := seedStore(t, docstore.Index{Collection: repository.SessionsCollection, Fields: []string{"taskId", "startedAt"}})

	a, err := newAggregator(indexed).Generate(ctx, window(t, TypeNormal))
	require.NoError(t, err)
	b, err := newAggregator(seedStore(t)).Generate(ctx, window(t, TypeNormal))
	require.NoError(t, err)

	assert.Equal(t, a.Items, b.Items)
	assert.Equal(t, a.TotalDurationSec, b.TotalDurationSec)
}

func TestGenerate_LabelGating(t *testing.T) {
	r, err := newAggregator(seedStore(t)).Generate(context.Background(), window(t, TypeNormal))
	require.NoError(t, err)
	for _, it := range r.Items {
		assert.NotEqual(t, "B", it.TaskID)
	}
}

func TestGenerate_NoOperationsLabel(t *testing.T) {
	store := docstore.NewMemory()
	addTask(t, store, "MONO", "A", "ops", "")
	addSession(t, store, "MONO", "a1", "A", day.Add(time.Hour), time.Hour, 3600)

	r, err := newAggregator(store).Generate(context.Background(), window(t, TypeNormal))
	require.NoError(t, err)
	assert.NotNil(t, r.Items)
	assert.Empty(t, r.Items)
	assert.Equal(t, int64(0), r.TotalDurationSec)
}

func TestGenerate_PartitionFailureIsReported(t *testing.T) {
	faulty := testutil.NewFaultyStore(seedStore(t))
	faulty.FailQuery(repository.TasksPath("REG2017"), errors.New("permission denied"))

	r, err := newAggregator(faulty).Generate(context.Background(), window(t, TypeNormal))
	require.NoError(t, err)
	assert.Equal(t, []string{"REG2017"}, r.FailedPartitions)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "A", r.Items[0].TaskID)
}

func TestGenerate_AllPartitionsFailed(t *testing.T) {
	faulty := testutil.NewFaultyStore(seedStore(t))
	faulty.FailQuery(repository.TasksPath("BRGREG"), errors.New("permission denied"))

	_, err := newAggregator(faulty).Generate(context.Background(), window(t, TypeBRG))
	assert.Error(t, err)
}

func TestGenerate_UnavailableAborts(t *testing.T) {
	faulty := testutil.NewFaultyStore(seedStore(t))
	faulty.FailQuery(repository.TasksPath("REG2017"), docstore.ErrUnavailable)

	_, err := newAggregator(faulty).Generate(context.Background(), window(t, TypeNormal))
	assert.ErrorIs(t, err, models.ErrRepositoryUnavailable)
	assert.Zero(t, faulty.QueryCount(repository.TasksPath("MONO")), "scan stops at the unreachable store")
}

func TestGenerate_InvalidRequest(t *testing.T) {
	agg := newAggregator(seedStore(t))

	_, err := agg.Generate(context.Background(), Request{From: day, To: day.Add(-time.Hour)})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	_, err = agg.Generate(context.Background(), Request{From: day, To: day, Type: "weekly"})
	assert.ErrorIs(t, err, models.ErrInvalidReportType)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeNormal, typ)

	typ, err = ParseType("brg")
	require.NoError(t, err)
	assert.Equal(t, TypeBRG, typ)

	_, err = ParseType("BRG")
	assert.ErrorIs(t, err, models.ErrInvalidReportType)
}
