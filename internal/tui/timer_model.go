package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

// TimerDeps are the collaborators of the timer view.
type TimerDeps struct {
	Pointer    *timer.ActivePointer
	Reconciler *timer.Reconciler
	Stopper    timer.Stopper
	Clock      models.Clock
	Location   *time.Location
	// PollInterval is how often the view revalidates the pointer.
	PollInterval time.Duration
}

// TimerModel shows the running session and keeps it in line with the
// server. It quits on its own when the session is stopped elsewhere.
type TimerModel struct {
	ctx     context.Context
	deps    TimerDeps
	task    models.Task
	state   timer.PointerState
	stopped *timer.StopOutput
	err     error
	notice  string

	width   int
	height  int
	elapsed time.Duration
	frame   int

	// UI state
	stopping bool // s pressed, stop in flight
	exiting  bool // esc/q, timer keeps running
	cleared  bool // pointer went idle or moved to another session
}

type timerTickMsg struct{}

type animationTickMsg struct{}

type reconcileTickMsg struct{}

type reconcileMsg struct {
	err     error
	state   timer.PointerState
	running bool
}

type stopMsg struct {
	out *timer.StopOutput
	err error
}

// NewTimerModel creates the view for the session the pointer refers to.
func NewTimerModel(ctx context.Context, task models.Task, deps TimerDeps) TimerModel {
	if deps.Clock == nil {
		deps.Clock = models.RealClock{}
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = timer.DefaultPollInterval
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	state, _ := deps.Pointer.Current()
	return TimerModel{
		ctx:     ctx,
		deps:    deps,
		task:    task,
		state:   state,
		elapsed: elapsedSince(state, deps.Clock.Now()),
	}
}

func elapsedSince(state timer.PointerState, now time.Time) time.Duration {
	if state.StartedAt.IsZero() || now.Before(state.StartedAt) {
		return 0
	}
	return now.Sub(state.StartedAt).Truncate(time.Second)
}

// Init starts the clock, animation and reconciliation ticks.
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(
		tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} }),
		tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return animationTickMsg{} }),
		m.reconcileTick(),
	)
}

func (m TimerModel) done() bool {
	return m.stopping || m.exiting || m.cleared
}

func (m TimerModel) reconcileTick() tea.Cmd {
	return tea.Tick(m.deps.PollInterval, func(time.Time) tea.Msg { return reconcileTickMsg{} })
}

func (m TimerModel) reconcile() tea.Msg {
	_, err := m.deps.Reconciler.Reconcile(m.ctx)
	state, running := m.deps.Pointer.Current()
	return reconcileMsg{err: err, state: state, running: running}
}

func (m TimerModel) stop() tea.Msg {
	out, err := timer.StopCurrent(m.ctx, m.deps.Stopper, m.deps.Pointer)
	return stopMsg{out: out, err: err}
}

// Update handles messages.
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		m.elapsed = elapsedSince(m.state, m.deps.Clock.Now())
		if m.done() {
			return m, nil
		}
		return m, tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} })

	case animationTickMsg:
		m.frame = (m.frame + 1) % 4
		if m.done() {
			return m, nil
		}
		return m, tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return animationTickMsg{} })

	case reconcileTickMsg:
		if m.done() {
			return m, nil
		}
		return m, m.reconcile

	case reconcileMsg:
		if msg.err != nil {
			m.notice = "sync failed, showing last known state"
			return m, m.reconcileTick()
		}
		if !msg.running || msg.state.SessionID != m.state.SessionID {
			m.cleared = true
			m.notice = "timer was stopped elsewhere"
			return m, tea.Quit
		}
		m.notice = ""
		m.state = msg.state
		return m, m.reconcileTick()

	case stopMsg:
		m.stopped, m.err = msg.out, msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.stopping {
			return m, nil
		}
		switch msg.String() {
		case "s", "S":
			m.stopping = true
			return m, m.stop
		case "ctrl+c", "esc", "q":
			m.exiting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the timer.
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderTimerPanel(m.width, contentHeight),
			helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderTaskPanel(rightWidth, contentHeight))
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func (m TimerModel) renderTimerPanel(width, height int) string {
	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
	var parts []string

	icons := []string{"⏱", "⏲", "⏱", "⏲"}
	header := fmt.Sprintf("%s  TRACKING TIME  %s", icons[m.frame], icons[m.frame])
	if m.stopping {
		header = "STOPPING..."
	}
	parts = append(parts, center.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true).Render(header))
	parts = append(parts, center.Foreground(lipgloss.Color(ColorAccentMain)).Bold(true).
		Render(m.state.ProjectType+" / "+m.state.TaskID))
	parts = append(parts, center.Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true).
		Render(truncate(m.task.Title, width-4)))

	var clock []string
	for _, line := range strings.Split(bigClock(m.elapsed), "\n") {
		clock = append(clock, center.Render(line))
	}
	parts = append(parts, strings.Join(clock, "\n"))

	started := "Started at " + m.state.StartedAt.In(m.deps.Location).Format("15:04:05")
	if m.state.Tentative() {
		started += " (confirming)"
	}
	parts = append(parts, center.Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render(started))
	if m.notice != "" {
		parts = append(parts, center.Foreground(lipgloss.Color(ColorWarning)).Render(m.notice))
	}

	return lipgloss.NewStyle().Width(width).Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(parts, "\n\n"))
}

func (m TimerModel) renderTaskPanel(width, height int) string {
	t := m.task
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	value := func(s, color string) string {
		if s == "" {
			return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Render("none")
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(s)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain)).Bold(true).Render(logo))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).
		Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width - 6).Padding(0, 1).Render(t.Title))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Status", value(t.Status, statusColor(t.Status))},
		{"Project", value(t.ProjectType, ColorAccentBright)},
		{"Assignees", value(strings.Join(t.AssigneeIDs, ", "), ColorAccentBright)},
		{"IT up", value(dateOrEmpty(t.ITUpDate, m.deps.Location), ColorWarning)},
		{"Release", value(dateOrEmpty(t.ReleaseDate, m.deps.Location), ColorWarning)},
	}
	for _, r := range rows {
		b.WriteString(label.Render(fmt.Sprintf("%-10s", r[0])))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}

func (m TimerModel) renderHelpBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("s stop & save · esc/q exit (keep running) · ctrl+c quit")
}

// RunTimer runs the timer view and reports how it ended.
func RunTimer(ctx context.Context, task models.Task, deps TimerDeps, out func(format string, args ...any)) error {
	p := tea.NewProgram(NewTimerModel(ctx, task, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}

	m := final.(TimerModel)
	switch {
	case m.err != nil:
		return fmt.Errorf("failed to stop session: %w", m.err)
	case m.stopped != nil:
		out("⏹️  Stopped tracking time for %s / %s: %s\n", m.state.ProjectType, m.state.TaskID, m.task.Title)
		out("📊 Session duration: %s\n", parser.FormatSeconds(m.stopped.DurationSec))
	case m.cleared:
		out("💡 The timer for %s was stopped elsewhere.\n", m.task.Title)
	case m.exiting:
		out("\n💡 Timer is still running for %s / %s: %s\n", m.state.ProjectType, m.state.TaskID, m.task.Title)
		out("   Use 'chumo status' to check it or 'chumo stop' to stop it.\n")
	}
	return nil
}
