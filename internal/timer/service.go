// Package timer implements the per-user stopwatch: start and stop with the
// server as the authority on elapsed time, the manual correction path, and
// the client-side active pointer with its optimistic start and
// reconciliation poll.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/metrics"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
)

// SessionRepository is the persistence the timer needs.
type SessionRepository interface {
	HasPartition(projectType string) bool
	GetTask(ctx context.Context, projectType, taskID string) (*models.Task, error)
	ActiveSessionsForUser(ctx context.Context, userID string) (repository.ActiveScan, error)
	ActiveSessionForPartition(ctx context.Context, projectType, userID string) ([]models.TaskSession, error)
	GetSession(ctx context.Context, projectType, sessionID string) (*models.TaskSession, error)
	CreateSession(ctx context.Context, s models.TaskSession) (string, error)
	UpdateSession(ctx context.Context, projectType, sessionID string, patch repository.SessionPatch) error
	DeleteSession(ctx context.Context, projectType, sessionID string) error
}

// Options configures a Service.
type Options struct {
	Clock   models.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// OnChange runs after a write that alters reportable durations.
	OnChange func()
}

// Service enforces at most one running session per user across every
// partition.
type Service struct {
	repo     SessionRepository
	clock    models.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	onChange func()
}

// NewService creates a Service.
func NewService(repo SessionRepository, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = models.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		clock:    clock,
		logger:   logger,
		metrics:  opts.Metrics,
		onChange: opts.OnChange,
	}
}

// StartInput contains the parameters for starting a timer.
type StartInput struct {
	UserID      string
	ProjectType string
	TaskID      string
}

// StartOutput contains the started session.
type StartOutput struct {
	Session   models.TaskSession
	SessionID string
}

// Start opens a session for the user on the task. It fails with a
// *models.TimerConflictError when the user already has an open session in
// any partition.
//
// Exclusivity is a read-then-write check: the cross-partition scan runs
// first and the target partition is re-read immediately before the write.
// Two concurrent starts by the same user can still both pass.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartOutput, error) {
	if strings.TrimSpace(in.UserID) == "" || in.ProjectType == "" || in.TaskID == "" {
		s.metrics.TimerStart("invalid")
		return nil, fmt.Errorf("%w: userId, projectId and taskId are required", models.ErrMissingFields)
	}
	if !s.repo.HasPartition(in.ProjectType) {
		s.metrics.TimerStart("invalid")
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownPartition, in.ProjectType)
	}
	if _, err := s.repo.GetTask(ctx, in.ProjectType, in.TaskID); err != nil {
		s.metrics.TimerStart("error")
		return nil, err
	}

	scan, err := s.repo.ActiveSessionsForUser(ctx, in.UserID)
	if err != nil {
		s.metrics.TimerStart("error")
		return nil, fmt.Errorf("check running timers: %w", err)
	}
	if len(scan.Sessions) > 0 {
		return nil, s.conflict(in, scan.Sessions[0])
	}
	if !scan.Complete() {
		s.metrics.TimerStart("error")
		return nil, fmt.Errorf("%w: cannot verify running timers in %s",
			models.ErrRepositoryUnavailable, strings.Join(scan.Failed, ", "))
	}

	// Narrow the race window with a targeted re-read right before writing.
	open, err := s.repo.ActiveSessionForPartition(ctx, in.ProjectType, in.UserID)
	if err != nil {
		s.metrics.TimerStart("error")
		return nil, fmt.Errorf("re-check running timers: %w", err)
	}
	if len(open) > 0 {
		return nil, s.conflict(in, models.ActiveSession{
			Session:     open[0],
			ProjectType: in.ProjectType,
			SessionID:   open[0].ID,
		})
	}

	session := models.TaskSession{
		ProjectType: in.ProjectType,
		TaskID:      in.TaskID,
		UserID:      in.UserID,
		StartedAt:   s.clock.Now(),
	}
	id, err := s.repo.CreateSession(ctx, session)
	if err != nil {
		s.metrics.TimerStart("error")
		return nil, err
	}
	session.ID = id

	s.metrics.TimerStart("ok")
	s.logger.Info("timer started",
		"user", in.UserID, "project", in.ProjectType, "task", in.TaskID, "session", id)
	return &StartOutput{Session: session, SessionID: id}, nil
}

func (s *Service) conflict(in StartInput, active models.ActiveSession) error {
	s.metrics.TimerStart("conflict")
	s.logger.Info("timer start refused, another timer is running",
		"user", in.UserID, "project", active.ProjectType, "session", active.SessionID)
	return &models.TimerConflictError{Conflict: active}
}

// StopInput identifies the session to stop.
type StopInput struct {
	ProjectType string
	SessionID   string
}

// StopOutput contains the stopped session and its duration.
type StopOutput struct {
	Session     models.TaskSession
	DurationSec int64
	DurationMin int64
}

// Stop ends a running session. The duration is computed from the stored
// startedAt and the service clock. Stopping an ended session fails with
// models.ErrSessionAlreadyEnded and leaves it untouched.
func (s *Service) Stop(ctx context.Context, in StopInput) (*StopOutput, error) {
	if in.ProjectType == "" || in.SessionID == "" {
		s.metrics.TimerStop("invalid")
		return nil, fmt.Errorf("%w: projectId and sessionId are required", models.ErrMissingFields)
	}

	session, err := s.repo.GetSession(ctx, in.ProjectType, in.SessionID)
	if err != nil {
		s.metrics.TimerStop("error")
		return nil, err
	}
	if !session.Running() {
		s.metrics.TimerStop("already_ended")
		return nil, fmt.Errorf("%w: %s", models.ErrSessionAlreadyEnded, in.SessionID)
	}

	end := s.clock.Now()
	duration := models.ElapsedSeconds(session.StartedAt, end)
	err = s.repo.UpdateSession(ctx, in.ProjectType, in.SessionID, repository.SessionPatch{
		EndedAt:     &end,
		DurationSec: &duration,
	})
	if err != nil {
		s.metrics.TimerStop("error")
		return nil, err
	}
	session.EndedAt = &end
	session.DurationSec = duration

	s.metrics.TimerStop("ok")
	s.logger.Info("timer stopped",
		"project", in.ProjectType, "session", in.SessionID, "durationSec", duration)
	s.changed()
	return &StopOutput{
		Session:     *session,
		DurationSec: duration,
		DurationMin: duration / 60,
	}, nil
}

// Active returns the user's newest running session, or nil.
func (s *Service) Active(ctx context.Context, userID string) (*models.ActiveSession, repository.ActiveScan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repository.ActiveScan{}, fmt.Errorf("%w: userId is required", models.ErrMissingFields)
	}
	scan, err := s.repo.ActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, scan, err
	}
	if len(scan.Sessions) == 0 {
		return nil, scan, nil
	}
	active := scan.Sessions[0]
	return &active, scan, nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Elapsed returns how long a running session has been open at now.
func Elapsed(session models.TaskSession, now time.Time) time.Duration {
	if session.StartedAt.IsZero() || now.Before(session.StartedAt) {
		return 0
	}
	if session.EndedAt != nil {
		return session.EndedAt.Sub(session.StartedAt)
	}
	return now.Sub(session.StartedAt)
}
