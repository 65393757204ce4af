package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/ordering"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/testutil"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

type stubStarter struct {
	err error
}

func (s *stubStarter) Start(_ context.Context, in timer.StartInput) (*timer.StartOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &timer.StartOutput{SessionID: "s-" + in.TaskID, Session: models.TaskSession{StartedAt: t0}}, nil
}

func listTasks() []models.Task {
	return []models.Task{
		{ID: "a", Title: "Alpha", Status: "進行中", AssigneeIDs: []string{"u1"}, Order: 1},
		{ID: "b", Title: "Beta", Status: models.StatusDone, AssigneeIDs: []string{"u1"}, Order: 2},
		{ID: "c", Title: "Gamma", Status: "未着手", AssigneeIDs: []string{"u2"}, Order: 3},
	}
}

func newListModel(starter timer.Starter) (ListModel, *timer.ActivePointer) {
	pointer := timer.NewActivePointer("")
	clock := testutil.NewMockClock(t0)
	m := NewListModel(context.Background(), listTasks(), ListDeps{
		View:     ordering.NewView(t0, time.UTC),
		Pointer:  pointer,
		Starter:  starter,
		Stopper:  &recordingStopper{},
		Clock:    clock,
		Location: time.UTC,
		UserID:   "u1",
		Project:  "MONO",
	})
	return m, pointer
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestListModel_OptimisticStartMovesTaskToTop(t *testing.T) {
	m, pointer := newListModel(&stubStarter{})
	assert.Equal(t, []string{"a", "b", "c"}, ids(m.Tasks()))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(key("s"))
	lm := next.(ListModel)

	// Reordered before the server answers.
	assert.Equal(t, []string{"c", "a", "b"}, ids(lm.Tasks()))
	state, ok := pointer.Current()
	require.True(t, ok)
	assert.True(t, state.Tentative())

	next, _ = lm.Update(cmd())
	state, _ = pointer.Current()
	assert.Equal(t, "s-c", state.SessionID)
	assert.Equal(t, []string{"c", "a", "b"}, ids(next.(ListModel).Tasks()))
}

func TestListModel_FailedStartRollsBack(t *testing.T) {
	m, pointer := newListModel(&stubStarter{err: models.ErrTimerAlreadyRunning})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(key("s"))
	next, _ = next.Update(cmd())
	lm := next.(ListModel)

	_, running := pointer.Current()
	assert.False(t, running)
	assert.Equal(t, []string{"a", "b", "c"}, ids(lm.Tasks()))
	assert.Contains(t, lm.notice, models.ErrTimerAlreadyRunning.Error())
}

func TestListModel_SearchAndFilters(t *testing.T) {
	m, _ := newListModel(&stubStarter{})

	next, _ := m.Update(key("/"))
	for _, r := range "amm" {
		next, _ = next.Update(key(string(r)))
	}
	assert.Equal(t, []string{"c"}, ids(next.(ListModel).Tasks()))

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, next.(ListModel).Tasks(), 3)

	next, _ = next.Update(key("c"))
	assert.Equal(t, []string{"a", "c"}, ids(next.(ListModel).Tasks()))
}

func TestListModel_StopRunningTask(t *testing.T) {
	m, pointer := newListModel(&stubStarter{})
	require.NoError(t, pointer.Set(timer.PointerState{ProjectType: "MONO", TaskID: "b", SessionID: "s-b", StartedAt: t0}))
	m.refresh()
	m.selected = 0
	require.Equal(t, "b", m.Tasks()[0].ID)

	next, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())

	_, running := pointer.Current()
	assert.False(t, running)
	assert.Equal(t, []string{"a", "b", "c"}, ids(next.(ListModel).Tasks()))
}

func TestListModel_IgnoresKeysWhileBusy(t *testing.T) {
	m, _ := newListModel(&stubStarter{err: errors.New("slow")})
	next, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	_, second := next.Update(key("s"))
	assert.Nil(t, second)
}
