package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/config"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/report"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/testutil"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

func TestNew_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "chumo.db")

	c, err := New(cfg, Options{LogOutput: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, cfg.Partitions, c.Repo.Partitions())
	assert.NotNil(t, c.Timer)
	assert.NotNil(t, c.Reports)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "postgres"
	_, err := New(cfg, Options{LogOutput: io.Discard})
	assert.Error(t, err)
}

func TestNew_StopInvalidatesReportCache(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewMockClock(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	store := docstore.NewMemory()

	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	c, err := New(cfg, Options{Store: store, Clock: clock, LogOutput: io.Discard})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	require.NoError(t, store.Set(ctx, repository.LabelsCollection, "ops", docstore.Fields{"name": "運用", "projectId": nil}))
	require.NoError(t, store.Set(ctx, repository.TasksPath("MONO"), "t1", repository.TaskFields(models.Task{
		Title: "ops task", KubunLabelID: "ops", Status: "進行中",
	})))

	req := report.Request{
		From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Type: report.TypeNormal,
	}
	before, err := c.Reports.Generate(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, before.Items)

	started, err := c.Timer.Start(ctx, timer.StartInput{UserID: "u1", ProjectType: "MONO", TaskID: "t1"})
	require.NoError(t, err)
	clock.Advance(90 * time.Second)
	_, err = c.Timer.Stop(ctx, timer.StopInput{ProjectType: "MONO", SessionID: started.SessionID})
	require.NoError(t, err)

	after, err := c.Reports.Generate(ctx, req)
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, int64(90), after.TotalDurationSec)
}

func TestNew_SharedDatabaseInvalidatesReportCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "chumo.db")
	clock := testutil.NewMockClock(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))

	serve, err := New(cfg, Options{Clock: clock, LogOutput: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = serve.Close() })
	cli, err := New(cfg, Options{Clock: clock, LogOutput: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	setter := serve.Store.(docstore.Setter)
	require.NoError(t, setter.Set(ctx, repository.LabelsCollection, "ops", docstore.Fields{"name": "運用", "projectId": nil}))
	require.NoError(t, setter.Set(ctx, repository.TasksPath("MONO"), "t1", repository.TaskFields(models.Task{
		Title: "ops task", KubunLabelID: "ops", Status: "進行中",
	})))

	started, err := cli.Timer.Start(ctx, timer.StartInput{UserID: "u1", ProjectType: "MONO", TaskID: "t1"})
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, err = cli.Timer.Stop(ctx, timer.StopInput{ProjectType: "MONO", SessionID: started.SessionID})
	require.NoError(t, err)

	req := report.Request{
		From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Type: report.TypeNormal,
	}
	before, err := serve.Reports.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(600), before.TotalDurationSec)

	require.NoError(t, cli.Timer.Delete(ctx, timer.DeleteInput{ProjectType: "MONO", SessionID: started.SessionID}))

	after, err := serve.Reports.Generate(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
	assert.Equal(t, int64(0), after.TotalDurationSec)
}
