package models

import (
	"time"
)

// StatusDone is the terminal task status.
const StatusDone = "完了"

// Task statuses shown in list filters, in workflow order.
var Statuses = []string{"未着手", "進行中", "確認待ち", StatusDone}

// Task represents a work item inside a project partition. Only the fields
// the timer, report and list views touch are modelled.
type Task struct {
	CreatedAt    time.Time  `json:"createdAt"`
	ITUpDate     *time.Time `json:"itUpDate"`
	ReleaseDate  *time.Time `json:"releaseDate"`
	ID           string     `json:"id"`
	ProjectType  string     `json:"projectType"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	KubunLabelID string     `json:"kubunLabelId"`
	Over3Reason  string     `json:"over3Reason,omitempty"`
	AssigneeIDs  []string   `json:"assigneeIds"`
	Order        float64    `json:"order"`
}

// Done reports whether the task is in the terminal status.
func (t Task) Done() bool {
	return t.Status == StatusDone
}

// Unassigned reports whether nobody has claimed the task.
func (t Task) Unassigned() bool {
	return len(t.AssigneeIDs) == 0
}

// AssignedTo reports whether userID is one of the assignees.
func (t Task) AssignedTo(userID string) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}
