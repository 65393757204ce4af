package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/testutil"
)

func stoppedSession(t *testing.T, f *fixture, d time.Duration) string {
	t.Helper()
	ctx := context.Background()
	out, err := f.svc.Start(ctx, StartInput{UserID: "u1", ProjectType: "MONO", TaskID: "T1"})
	require.NoError(t, err)
	f.clock.Advance(d)
	_, err = f.svc.Stop(ctx, StopInput{ProjectType: "MONO", SessionID: out.SessionID})
	require.NoError(t, err)
	return out.SessionID
}

func TestEdit_RecomputesDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := stoppedSession(t, f, 10*time.Minute)

	start := t0.Add(-time.Hour)
	end := t0.Add(30 * time.Minute)
	got, err := f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: id, StartedAt: &start, EndedAt: &end})
	require.NoError(t, err)
	assert.Equal(t, int64(5400), got.DurationSec)

	stored, err := f.repo.GetSession(ctx, "MONO", id)
	require.NoError(t, err)
	assert.Equal(t, int64(5400), stored.DurationSec)
	assert.True(t, stored.StartedAt.Equal(start))
}

func TestEdit_StartOnlyUsesRetainedEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := stoppedSession(t, f, 10*time.Minute)

	start := t0.Add(-5 * time.Minute)
	got, err := f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: id, StartedAt: &start})
	require.NoError(t, err)
	assert.Equal(t, int64(900), got.DurationSec)
}

func TestEdit_NoteOnlyKeepsDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := stoppedSession(t, f, 10*time.Minute)
	note := "wrong ticket"
	user := "u2"

	got, err := f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: id, Note: &note, UserID: &user})
	require.NoError(t, err)
	assert.Equal(t, int64(600), got.DurationSec)
	assert.Equal(t, "u2", got.UserID)
	assert.Equal(t, "wrong ticket", got.Note)
}

func TestEdit_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := stoppedSession(t, f, 10*time.Minute)
	blank := " "
	same := t0
	late := t0.Add(time.Hour)

	tests := []struct {
		name    string
		in      EditInput
		wantErr error
	}{
		{"end equals start", EditInput{EndedAt: &same}, models.ErrInvalidSessionRange},
		{"start after retained end", EditInput{StartedAt: &late}, models.ErrInvalidSessionRange},
		{"blank user", EditInput{UserID: &blank}, models.ErrMissingFields},
		{"missing session", EditInput{SessionID: "nope"}, models.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.ProjectType = "MONO"
			if in.SessionID == "" {
				in.SessionID = id
			}
			_, err := f.svc.Edit(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := f.repo.GetSession(ctx, "MONO", id)
	require.NoError(t, err)
	assert.Equal(t, int64(600), stored.DurationSec)
}

func TestEdit_RunningSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	out, err := f.svc.Start(ctx, StartInput{UserID: "u1", ProjectType: "MONO", TaskID: "T1"})
	require.NoError(t, err)

	end := t0.Add(time.Minute)
	_, err = f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: out.SessionID, EndedAt: &end})
	assert.ErrorIs(t, err, models.ErrSessionRunning)

	start := t0.Add(-time.Minute)
	got, err := f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: out.SessionID, StartedAt: &start})
	require.NoError(t, err)
	assert.True(t, got.Running())
	assert.Equal(t, int64(0), got.DurationSec)
}

func TestEdit_ReassignRunningSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, err := f.svc.Start(ctx, StartInput{UserID: "u1", ProjectType: "MONO", TaskID: "T1"})
	require.NoError(t, err)
	second, err := f.svc.Start(ctx, StartInput{UserID: "u2", ProjectType: "REG2017", TaskID: "T2"})
	require.NoError(t, err)

	u2 := "u2"
	_, err = f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: first.SessionID, UserID: &u2})
	var conflict *models.TimerConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, second.SessionID, conflict.Conflict.SessionID)
	assert.Equal(t, 1, f.openCount(t, "u1"))
	assert.Equal(t, 1, f.openCount(t, "u2"))

	// A user with nothing running can take the session over.
	u3 := "u3"
	got, err := f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: first.SessionID, UserID: &u3})
	require.NoError(t, err)
	assert.Equal(t, "u3", got.UserID)
	assert.Equal(t, 0, f.openCount(t, "u1"))
	assert.Equal(t, 1, f.openCount(t, "u3"))

	// Reassigning an ended session is not restricted.
	id := stoppedSession(t, f, time.Minute)
	got, err = f.svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: id, UserID: &u2})
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UserID)
}

func TestEdit_ReassignRefusesIncompleteScan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	out, err := f.svc.Start(ctx, StartInput{UserID: "u1", ProjectType: "MONO", TaskID: "T1"})
	require.NoError(t, err)

	faulty := testutil.NewFaultyStore(f.store)
	faulty.FailQuery(repository.SessionsPath("BRGREG"), errors.New("partition offline"))
	repo := repository.New(faulty, repository.Options{Partitions: partitions, Logger: discard})
	svc := NewService(repo, Options{Clock: f.clock, Logger: discard})

	u2 := "u2"
	_, err = svc.Edit(ctx, EditInput{ProjectType: "MONO", SessionID: out.SessionID, UserID: &u2})
	assert.ErrorIs(t, err, models.ErrRepositoryUnavailable)
	assert.Equal(t, 1, f.openCount(t, "u1"))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := stoppedSession(t, f, time.Minute)
	before := f.changes

	require.NoError(t, f.svc.Delete(ctx, DeleteInput{ProjectType: "MONO", SessionID: id}))
	assert.Equal(t, before+1, f.changes)

	_, err := f.repo.GetSession(ctx, "MONO", id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	require.NoError(t, f.svc.Delete(ctx, DeleteInput{ProjectType: "MONO", SessionID: id}))
	assert.ErrorIs(t, f.svc.Delete(ctx, DeleteInput{ProjectType: "MONO"}), models.ErrMissingFields)
}
