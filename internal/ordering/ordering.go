// Package ordering filters and sorts task lists for display. It is pure:
// the caller supplies the active task and the time the list was opened.
package ordering

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
)

// NewTaskWindow is how recently an unassigned task must have been created
// to be pinned near the top.
const NewTaskWindow = 7 * 24 * time.Hour

// Status filter values besides an exact status.
const (
	StatusAll          = "all"
	StatusNotCompleted = "not-completed"
)

// Timer filter values.
const (
	TimerAll      = "all"
	TimerActive   = "active"
	TimerInactive = "inactive"
)

// SortMode is the final tie-breaker.
type SortMode string

// Sort modes.
const (
	SortOrder      SortMode = "order"
	SortITUpAsc    SortMode = "itUpDate-asc"
	SortITUpDesc   SortMode = "itUpDate-desc"
	defaultSortKey          = SortOrder
)

// ParseSortMode parses a sort mode. An empty string means SortOrder.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "":
		return defaultSortKey, nil
	case SortOrder, SortITUpAsc, SortITUpDesc:
		return SortMode(s), nil
	default:
		return "", fmt.Errorf("invalid sort mode %q, use order, itUpDate-asc or itUpDate-desc", s)
	}
}

// Filters narrow a task list. Zero values match everything.
type Filters struct {
	Status       string
	AssigneeID   string
	LabelID      string
	Timer        string
	Title        string
	ITUpMonth    string // YYYY-MM
	ReleaseMonth string // YYYY-MM
}

// Validate checks the enumerated and month filters.
func (f Filters) Validate() error {
	switch f.Timer {
	case "", TimerAll, TimerActive, TimerInactive:
	default:
		return fmt.Errorf("invalid timer filter %q, use all, active or inactive", f.Timer)
	}
	if f.Status != "" && f.Status != StatusAll && f.Status != StatusNotCompleted &&
		!slices.Contains(models.Statuses, f.Status) {
		return fmt.Errorf("invalid status filter %q", f.Status)
	}
	for _, m := range []string{f.ITUpMonth, f.ReleaseMonth} {
		if m == "" {
			continue
		}
		if _, err := parser.ParseMonth(m); err != nil {
			return err
		}
	}
	return nil
}

// View orders tasks for one list session. Its mount time is fixed when the
// view is created so the "new" classification does not drift while a list
// is displayed.
type View struct {
	mountTime time.Time
	loc       *time.Location
}

// NewView creates a view mounted at mountTime. Month filters are evaluated
// in loc.
func NewView(mountTime time.Time, loc *time.Location) *View {
	if loc == nil {
		loc = time.Local
	}
	return &View{mountTime: mountTime, loc: loc}
}

// MountTime returns the time the view was created.
func (v *View) MountTime() time.Time {
	return v.mountTime
}

// Order filters tasks and sorts the result. The input is not modified.
func (v *View) Order(tasks []models.Task, f Filters, activeTaskID string, mode SortMode) []models.Task {
	out := Filter(tasks, f, activeTaskID, v.loc)
	Sort(out, activeTaskID, v.mountTime, mode)
	return out
}

// Filter applies the filters in order: status, assignee, label, timer,
// title, IT-up month, release month.
func Filter(tasks []models.Task, f Filters, activeTaskID string, loc *time.Location) []models.Task {
	title := strings.ToLower(strings.TrimSpace(f.Title))
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		switch f.Status {
		case "", StatusAll:
		case StatusNotCompleted:
			if t.Done() {
				continue
			}
		default:
			if t.Status != f.Status {
				continue
			}
		}
		if f.AssigneeID != "" && !t.AssignedTo(f.AssigneeID) {
			continue
		}
		if f.LabelID != "" && t.KubunLabelID != f.LabelID {
			continue
		}
		switch f.Timer {
		case TimerActive:
			if activeTaskID == "" || t.ID != activeTaskID {
				continue
			}
		case TimerInactive:
			if activeTaskID != "" && t.ID == activeTaskID {
				continue
			}
		}
		if title != "" && !strings.Contains(strings.ToLower(t.Title), title) {
			continue
		}
		if f.ITUpMonth != "" && !inMonth(t.ITUpDate, f.ITUpMonth, loc) {
			continue
		}
		if f.ReleaseMonth != "" && !inMonth(t.ReleaseDate, f.ReleaseMonth, loc) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func inMonth(t *time.Time, month string, loc *time.Location) bool {
	return t != nil && parser.MonthKey(*t, loc) == month
}

// IsNew reports whether the task was created within NewTaskWindow before
// mountTime. A task without a creation time, or created after mountTime,
// is not new.
func IsNew(t models.Task, mountTime time.Time) bool {
	if t.CreatedAt.IsZero() {
		return false
	}
	return !t.CreatedAt.After(mountTime) && !t.CreatedAt.Before(mountTime.Add(-NewTaskWindow))
}

// Sort orders tasks in place: the active task first, then unassigned new
// tasks, then by mode. Each tier refines the previous and ties keep their
// input order.
func Sort(tasks []models.Task, activeTaskID string, mountTime time.Time, mode SortMode) {
	priority := func(t models.Task) int {
		if activeTaskID != "" && t.ID == activeTaskID {
			return 0
		}
		if t.Unassigned() && IsNew(t, mountTime) {
			return 1
		}
		return 2
	}

	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		if c := cmp.Compare(priority(a), priority(b)); c != 0 {
			return c
		}
		switch mode {
		case SortITUpAsc:
			return compareDates(a.ITUpDate, b.ITUpDate, false)
		case SortITUpDesc:
			return compareDates(a.ITUpDate, b.ITUpDate, true)
		default:
			return cmp.Compare(a.Order, b.Order)
		}
	})
}

// compareDates sorts nil last regardless of direction.
func compareDates(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := a.Compare(*b)
	if desc {
		return -c
	}
	return c
}
