package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/ordering"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

// ListDeps are the collaborators of the task list.
type ListDeps struct {
	View     *ordering.View
	Pointer  *timer.ActivePointer
	Starter  timer.Starter
	Stopper  timer.Stopper
	Clock    models.Clock
	Location *time.Location
	UserID   string
	Project  string
	Filters  ordering.Filters
	Mode     ordering.SortMode
}

// Focus represents what UI element has focus
type Focus int

const (
	FocusTable Focus = iota
	FocusSearch
)

var sortModes = []ordering.SortMode{ordering.SortOrder, ordering.SortITUpAsc, ordering.SortITUpDesc}

// ListModel is the ordered task list of one partition. The order is
// recomputed whenever filters or the running task change; the view's
// mount time stays fixed.
type ListModel struct {
	ctx     context.Context
	deps    ListDeps
	all     []models.Task
	tasks   []models.Task
	search  textinput.Model
	shimmer *Shimmer
	filters ordering.Filters
	mode    ordering.SortMode
	notice  string

	width        int
	height       int
	selected     int
	currentPage  int
	tasksPerPage int
	focus        Focus
	busy         bool // start or stop in flight
}

type shimmerTickMsg time.Time

type toggleMsg struct {
	err     error
	started bool
}

// NewListModel creates a list over tasks.
func NewListModel(ctx context.Context, tasks []models.Task, deps ListDeps) ListModel {
	if deps.Clock == nil {
		deps.Clock = models.RealClock{}
	}
	if deps.View == nil {
		deps.View = ordering.NewView(deps.Clock.Now(), deps.Location)
	}
	if deps.Mode == "" {
		deps.Mode = ordering.SortOrder
	}

	search := textinput.New()
	search.Placeholder = "Filter by title"
	search.CharLimit = 100
	search.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	search.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	search.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	search.SetValue(deps.Filters.Title)

	m := ListModel{
		ctx:          ctx,
		deps:         deps,
		all:          tasks,
		search:       search,
		shimmer:      NewShimmer(DefaultShimmerConfig()),
		filters:      deps.Filters,
		mode:         deps.Mode,
		tasksPerPage: 10,
	}
	m.refresh()
	return m
}

// Tasks returns the tasks in display order.
func (m ListModel) Tasks() []models.Task {
	return m.tasks
}

// activeTaskID is the running task when it belongs to this partition.
func (m ListModel) activeTaskID() string {
	state, ok := m.deps.Pointer.Current()
	if !ok || state.ProjectType != m.deps.Project {
		return ""
	}
	return state.TaskID
}

// refresh re-runs the ordering and keeps the selected task selected.
func (m *ListModel) refresh() {
	var keep string
	if m.selected < len(m.tasks) {
		keep = m.tasks[m.selected].ID
	}
	m.tasks = m.deps.View.Order(m.all, m.filters, m.activeTaskID(), m.mode)

	m.selected = 0
	for i, t := range m.tasks {
		if t.ID == keep {
			m.selected = i
			break
		}
	}
	if m.tasksPerPage > 0 {
		m.currentPage = m.selected / m.tasksPerPage
	}
}

// Init starts the shimmer.
func (m ListModel) Init() tea.Cmd {
	return m.shimmerTick()
}

func (m ListModel) shimmerTick() tea.Cmd {
	if !m.shimmer.Animated() {
		return nil
	}
	return tea.Tick(m.shimmer.Interval(), func(t time.Time) tea.Msg { return shimmerTickMsg(t) })
}

// Update handles messages.
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case shimmerTickMsg:
		if id := m.activeTaskID(); id != "" {
			for _, t := range m.tasks {
				if t.ID == id {
					m.shimmer.Step(len([]rune(t.Title)), time.Time(msg))
				}
			}
		}
		return m, m.shimmerTick()

	case toggleMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.notice = "❌ " + msg.err.Error()
		case msg.started:
			m.notice = "⏱️  timer started"
		default:
			m.notice = "⏹️  timer stopped"
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header(2) + column header(2) + pagination(1) + help(1) + borders and margins(6)
		m.tasksPerPage = max(3, m.height-12)
		m.currentPage = m.selected / m.tasksPerPage
		return m, nil

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.handleSearchKeys(msg)
		}
		return m.handleTableKeys(msg)
	}
	return m, nil
}

func (m ListModel) handleTableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.currentPage = m.selected / m.tasksPerPage
		}
	case "down", "j":
		if m.selected < len(m.tasks)-1 {
			m.selected++
			m.currentPage = m.selected / m.tasksPerPage
		}
	case "left", "h":
		if m.currentPage > 0 {
			m.currentPage--
			m.selected = m.currentPage * m.tasksPerPage
		}
	case "right", "l":
		if (m.currentPage+1)*m.tasksPerPage < len(m.tasks) {
			m.currentPage++
			m.selected = m.currentPage * m.tasksPerPage
		}
	case "/":
		m.focus = FocusSearch
		return m, m.search.Focus()
	case "f":
		for i, mode := range sortModes {
			if mode == m.mode {
				m.mode = sortModes[(i+1)%len(sortModes)]
				break
			}
		}
		m.refresh()
	case "c":
		if m.filters.Status == ordering.StatusNotCompleted {
			m.filters.Status = ordering.StatusAll
		} else {
			m.filters.Status = ordering.StatusNotCompleted
		}
		m.refresh()
	case "s":
		return m.toggleTimer()
	}
	return m, nil
}

func (m ListModel) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.filters.Title = ""
		m.search.Blur()
		m.focus = FocusTable
		m.refresh()
		return m, nil
	case "enter":
		m.search.Blur()
		m.focus = FocusTable
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filters.Title = m.search.Value()
	m.refresh()
	return m, cmd
}

// toggleTimer stops the selected task's timer when it is running and
// starts it otherwise. A start is applied to the pointer before the
// server answers, so the task moves to the top immediately.
func (m ListModel) toggleTimer() (tea.Model, tea.Cmd) {
	if m.busy || len(m.tasks) == 0 {
		return m, nil
	}
	task := m.tasks[m.selected]
	m.busy = true

	if task.ID == m.activeTaskID() {
		return m, func() tea.Msg {
			_, err := timer.StopCurrent(m.ctx, m.deps.Stopper, m.deps.Pointer)
			return toggleMsg{err: err}
		}
	}

	in := timer.StartInput{UserID: m.deps.UserID, ProjectType: m.deps.Project, TaskID: task.ID}
	pd := m.deps.Pointer.Begin(in.ProjectType, in.TaskID, m.deps.Clock.Now())
	m.shimmer.Reset()
	m.refresh()

	return m, func() tea.Msg {
		out, err := m.deps.Starter.Start(m.ctx, in)
		if err != nil {
			m.deps.Pointer.Rollback(pd)
			return toggleMsg{err: err}
		}
		return toggleMsg{started: true, err: m.deps.Pointer.Confirm(pd, out.SessionID, out.Session.StartedAt)}
	}
}

// View renders the list.
func (m ListModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderTaskTable(leftWidth),
		" ",
		m.renderTaskDetails(rightWidth))

	bottom := m.renderHelpBar()
	if m.focus == FocusSearch {
		bottom = lipgloss.NewStyle().Padding(0, 1).Width(m.width - 2).Render("Search: " + m.search.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, "", content, "", bottom)
}

func (m ListModel) renderTaskTable(width int) string {
	var b strings.Builder
	header := fmt.Sprintf("📋 %s  ·  sort: %s", m.deps.Project, m.mode)
	if m.filters.Status == ordering.StatusNotCompleted {
		header += "  ·  hiding done"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Render(header))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render("No tasks found"))
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).Width(width).Render(b.String())
	}

	const statusWidth, dateWidth, markWidth = 8, 10, 2
	titleWidth := max(20, width-4-statusWidth-dateWidth-markWidth-4)
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Padding(0, 1).
		Render(fmt.Sprintf("%-*s %-*s %-*s %s", markWidth, "", titleWidth, "TITLE", statusWidth, "STATUS", "IT UP")))
	b.WriteString("\n\n")

	active := m.activeTaskID()
	start := m.currentPage * m.tasksPerPage
	end := min(start+m.tasksPerPage, len(m.tasks))
	for i := start; i < end; i++ {
		t := m.tasks[i]

		mark := "  "
		switch {
		case t.ID == active:
			mark = "▶ "
		case t.Unassigned() && ordering.IsNew(t, m.deps.View.MountTime()):
			mark = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("★ ")
		}

		title := truncate(t.Title, titleWidth)
		pad := padding(title, titleWidth)
		if t.ID == active {
			title = m.shimmer.Render(title)
		}
		status := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(t.Status))).Render(t.Status) +
			padding(t.Status, statusWidth)
		row := fmt.Sprintf("%s%s%s %s %s", mark, title, pad, status, dateOrDash(t.ITUpDate, m.deps.Location))

		if i == m.selected {
			b.WriteString(lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).Bold(true).Padding(0, 1).Render(row))
		} else {
			b.WriteString(" " + row)
		}
		b.WriteString("\n")
	}

	if m.tasksPerPage < len(m.tasks) {
		pages := (len(m.tasks) + m.tasksPerPage - 1) / m.tasksPerPage
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).Width(width - 2).MarginTop(1).
			Render(fmt.Sprintf("Page %d/%d (%d tasks)", m.currentPage+1, pages, len(m.tasks))))
	}

	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).Width(width).Render(b.String())
}

func dateOrDash(t *time.Time, loc *time.Location) string {
	if s := dateOrEmpty(t, loc); s != "" {
		return s
	}
	return "-"
}

func (m ListModel) renderTaskDetails(width int) string {
	var b strings.Builder
	if len(m.tasks) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain)).Bold(true).
			Align(lipgloss.Center).Width(width).Render("chumo"))
	} else {
		t := m.tasks[m.selected]
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).
			Width(width).Render(t.Title))
		b.WriteString("\n\n")

		line := func(label, value, color string) {
			if value == "" {
				return
			}
			b.WriteString(label + ": ")
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(value))
			b.WriteString("\n")
		}
		line("Status", t.Status, statusColor(t.Status))
		line("Assignees", strings.Join(t.AssigneeIDs, ", "), ColorAccentBright)
		line("Label", t.KubunLabelID, ColorAccentMain)
		line("IT up", dateOrEmpty(t.ITUpDate, m.deps.Location), ColorWarning)
		line("Release", dateOrEmpty(t.ReleaseDate, m.deps.Location), ColorWarning)
		if !t.CreatedAt.IsZero() {
			line("Created", dateOrEmpty(&t.CreatedAt, m.deps.Location), ColorSecondaryText)
		}
		if t.Over3Reason != "" {
			b.WriteString("\nOver 3h:\n")
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).
				Width(width - 2).Render(t.Over3Reason))
		}
	}
	if m.notice != "" {
		b.WriteString("\n\n" + m.notice)
	}

	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).Width(width).Render(b.String())
}

func (m ListModel) renderHelpBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("↑/↓ nav · ←/→ page · / search · f sort · c hide done · s start/stop · q/esc quit")
}
