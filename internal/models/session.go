package models

import (
	"time"
)

// TaskSession represents one timer run against a task.
type TaskSession struct {
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt"` // nil while running
	ID          string     `json:"id"`
	ProjectType string     `json:"projectType"`
	TaskID      string     `json:"taskId"`
	UserID      string     `json:"userId"`
	Note        string     `json:"note,omitempty"`
	DurationSec int64      `json:"durationSec"` // 0 while running, fixed at stop
}

// Running reports whether the session has not been stopped yet.
func (s TaskSession) Running() bool {
	return s.EndedAt == nil
}

// EffectiveDurationSec returns the duration used for reporting. A stored
// duration of zero is recomputed from the timestamps, and running sessions
// count as zero.
func (s TaskSession) EffectiveDurationSec() int64 {
	if s.EndedAt == nil {
		return 0
	}
	if s.DurationSec > 0 {
		return s.DurationSec
	}
	if s.StartedAt.IsZero() {
		return 0
	}
	return ElapsedSeconds(s.StartedAt, *s.EndedAt)
}

// ElapsedSeconds returns whole seconds between start and end, floored and
// never negative.
func ElapsedSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// ActiveSession identifies a user's running session.
type ActiveSession struct {
	Session     TaskSession `json:"session"`
	ProjectType string      `json:"projectType"`
	SessionID   string      `json:"sessionId"`
}

// TaskID returns the task the running session belongs to.
func (a ActiveSession) TaskID() string {
	return a.Session.TaskID
}
