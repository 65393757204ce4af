package models

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrTimerAlreadyRunning is returned when the user already has an open
	// session in any project.
	ErrTimerAlreadyRunning = errors.New("another timer is running, stop it first")

	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyEnded is returned when stopping a terminal session.
	ErrSessionAlreadyEnded = errors.New("session already ended")

	// ErrInvalidSessionRange is returned when an edit would put endedAt at
	// or before startedAt.
	ErrInvalidSessionRange = errors.New("endedAt must be after startedAt")

	// ErrSessionRunning is returned when an edit would end a running session.
	ErrSessionRunning = errors.New("session is still running, stop it instead")

	// ErrTaskNotFound is returned when a task id does not resolve.
	ErrTaskNotFound = errors.New("task not found")

	// ErrRepositoryUnavailable is returned when the store cannot be reached.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrMissingFields is returned when a required input is empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidDateRange is returned for unparseable or inverted report windows.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnknownPartition is returned for a project type outside the configured list.
	ErrUnknownPartition = errors.New("unknown project type")

	// ErrInvalidFilter is returned for an unknown task list filter or sort.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidReportType is returned for a selector other than normal or brg.
	ErrInvalidReportType = errors.New("invalid report type")
)

// TimerConflictError carries the session that blocked a start.
type TimerConflictError struct {
	Conflict ActiveSession
}

func (e *TimerConflictError) Error() string {
	return fmt.Sprintf("%s: session %s on task %s in %s",
		ErrTimerAlreadyRunning, e.Conflict.SessionID, e.Conflict.TaskID(), e.Conflict.ProjectType)
}

func (e *TimerConflictError) Unwrap() error {
	return ErrTimerAlreadyRunning
}
