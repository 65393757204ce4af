package timer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
)

// EditInput holds a manual correction. Nil fields are left unchanged.
type EditInput struct {
	StartedAt   *time.Time
	EndedAt     *time.Time
	UserID      *string
	Note        *string
	ProjectType string
	SessionID   string
}

// Edit amends a session after the fact. When both timestamps are known
// after the edit, durationSec is recomputed from them; otherwise it is kept.
// An edit never ends a running session, and never hands a running session
// to a user who already has one open. Ownership is not checked: any caller
// may edit any session.
func (s *Service) Edit(ctx context.Context, in EditInput) (*models.TaskSession, error) {
	if in.ProjectType == "" || in.SessionID == "" {
		return nil, fmt.Errorf("%w: projectId and sessionId are required", models.ErrMissingFields)
	}
	if in.UserID != nil && strings.TrimSpace(*in.UserID) == "" {
		return nil, fmt.Errorf("%w: userId cannot be blank", models.ErrMissingFields)
	}

	session, err := s.repo.GetSession(ctx, in.ProjectType, in.SessionID)
	if err != nil {
		return nil, err
	}
	if in.EndedAt != nil && session.Running() {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionRunning, in.SessionID)
	}
	if in.UserID != nil && *in.UserID != session.UserID && session.Running() {
		if err := s.checkReassign(ctx, *in.UserID); err != nil {
			return nil, err
		}
	}

	start := session.StartedAt
	if in.StartedAt != nil {
		start = *in.StartedAt
	}
	end := session.EndedAt
	if in.EndedAt != nil {
		end = in.EndedAt
	}
	if end != nil && !start.IsZero() && !end.After(start) {
		return nil, fmt.Errorf("%w: %s is not after %s", models.ErrInvalidSessionRange,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	patch := repository.SessionPatch{
		StartedAt: in.StartedAt,
		EndedAt:   in.EndedAt,
		UserID:    in.UserID,
		Note:      in.Note,
	}
	timingChanged := in.StartedAt != nil || in.EndedAt != nil
	if timingChanged && end != nil && !start.IsZero() {
		d := models.ElapsedSeconds(start, *end)
		patch.DurationSec = &d
	}
	if err := s.repo.UpdateSession(ctx, in.ProjectType, in.SessionID, patch); err != nil {
		return nil, err
	}

	session.StartedAt = start
	session.EndedAt = end
	if in.UserID != nil {
		session.UserID = *in.UserID
	}
	if in.Note != nil {
		session.Note = *in.Note
	}
	if patch.DurationSec != nil {
		session.DurationSec = *patch.DurationSec
	}

	s.logger.Info("session edited", "project", in.ProjectType, "session", in.SessionID,
		"durationSec", session.DurationSec)
	s.changed()
	return session, nil
}

// checkReassign fails when userID already has an open session, or when that
// cannot be verified because a partition could not be read.
func (s *Service) checkReassign(ctx context.Context, userID string) error {
	scan, err := s.repo.ActiveSessionsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("check running timers: %w", err)
	}
	if len(scan.Sessions) > 0 {
		s.logger.Info("session reassignment refused, target user has a running timer",
			"user", userID, "project", scan.Sessions[0].ProjectType, "session", scan.Sessions[0].SessionID)
		return &models.TimerConflictError{Conflict: scan.Sessions[0]}
	}
	if !scan.Complete() {
		return fmt.Errorf("%w: cannot verify running timers in %s",
			models.ErrRepositoryUnavailable, strings.Join(scan.Failed, ", "))
	}
	return nil
}

// DeleteInput identifies the session to delete.
type DeleteInput struct {
	ProjectType string
	SessionID   string
}

// Delete removes a session unconditionally.
func (s *Service) Delete(ctx context.Context, in DeleteInput) error {
	if in.ProjectType == "" || in.SessionID == "" {
		return fmt.Errorf("%w: projectId and sessionId are required", models.ErrMissingFields)
	}
	if err := s.repo.DeleteSession(ctx, in.ProjectType, in.SessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", "project", in.ProjectType, "session", in.SessionID)
	s.changed()
	return nil
}
