package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// ActiveScan is the result of a cross-partition scan for open sessions.
type ActiveScan struct {
	// Sessions are sorted newest startedAt first.
	Sessions []models.ActiveSession
	// Failed lists partitions whose query failed and were skipped.
	Failed []string
}

// Complete reports whether every partition was scanned.
func (s ActiveScan) Complete() bool {
	return len(s.Failed) == 0
}

// SessionPatch holds the fields a manual edit may change. Nil fields are
// left untouched.
type SessionPatch struct {
	StartedAt   *time.Time
	EndedAt     *time.Time
	UserID      *string
	Note        *string
	DurationSec *int64
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
	return p.StartedAt == nil && p.EndedAt == nil && p.UserID == nil &&
		p.Note == nil && p.DurationSec == nil
}

func (p SessionPatch) fields() docstore.Fields {
	f := docstore.Fields{}
	if p.StartedAt != nil {
		f["startedAt"] = *p.StartedAt
	}
	if p.EndedAt != nil {
		f["endedAt"] = *p.EndedAt
	}
	if p.UserID != nil {
		f["userId"] = *p.UserID
	}
	if p.Note != nil {
		f["note"] = *p.Note
	}
	if p.DurationSec != nil {
		f["durationSec"] = *p.DurationSec
	}
	return f
}

// SessionsForTask returns the task's sessions, newest startedAt first.
func (r *Repository) SessionsForTask(ctx context.Context, projectType, taskID string) ([]models.TaskSession, error) {
	col := SessionsPath(projectType)
	eq := docstore.From(col).Where("taskId", docstore.OpEqual, taskID)

	docs, fellBack, err := r.query(ctx, eq.OrderBy("startedAt", docstore.Desc), eq)
	if err != nil {
		return nil, fmt.Errorf("sessions for task %s/%s: %w", projectType, taskID, err)
	}

	sessions := sessionsFromDocs(projectType, docs)
	if fellBack {
		sortNewestFirst(sessions)
	}
	return sessions, nil
}

// SessionsForTaskInRange returns the task's sessions whose startedAt lies
// in [from, to], newest first.
func (r *Repository) SessionsForTaskInRange(ctx context.Context, projectType, taskID string, from, to time.Time) ([]models.TaskSession, error) {
	col := SessionsPath(projectType)
	eq := docstore.From(col).Where("taskId", docstore.OpEqual, taskID)
	indexed := eq.
		Where("startedAt", docstore.OpGreaterEqual, from).
		Where("startedAt", docstore.OpLessEqual, to).
		OrderBy("startedAt", docstore.Desc)

	docs, fellBack, err := r.query(ctx, indexed, eq)
	if err != nil {
		return nil, fmt.Errorf("sessions for task %s/%s: %w", projectType, taskID, err)
	}

	sessions := sessionsFromDocs(projectType, docs)
	if fellBack {
		sessions = slices.DeleteFunc(sessions, func(s models.TaskSession) bool {
			return s.StartedAt.IsZero() || s.StartedAt.Before(from) || s.StartedAt.After(to)
		})
		sortNewestFirst(sessions)
	}
	return sessions, nil
}

// ActiveSessionsForUser scans every partition for the user's open sessions.
// A failing partition is logged and skipped; the scan aborts only when the
// store itself is unavailable, or when every partition failed.
func (r *Repository) ActiveSessionsForUser(ctx context.Context, userID string) (ActiveScan, error) {
	var scan ActiveScan
	var lastErr error

	for _, p := range r.partitions {
		q := docstore.From(SessionsPath(p)).
			Where("userId", docstore.OpEqual, userID).
			Where("endedAt", docstore.OpEqual, nil)

		qctx, cancel := r.withTimeout(ctx)
		docs, err := r.store.Query(qctx, q)
		cancel()
		if err != nil {
			err = storeErr(err)
			if isFatal(err) {
				return ActiveScan{}, fmt.Errorf("active sessions for %s: %w", userID, err)
			}
			r.logger.Warn("partition scan failed, skipping",
				"partition", p, "operation", "active_sessions", "error", err)
			r.metrics.PartitionFailure(p, "active_sessions")
			scan.Failed = append(scan.Failed, p)
			lastErr = err
			continue
		}

		for _, s := range sessionsFromDocs(p, docs) {
			scan.Sessions = append(scan.Sessions, models.ActiveSession{
				Session:     s,
				ProjectType: p,
				SessionID:   s.ID,
			})
		}
	}

	if len(r.partitions) > 0 && len(scan.Failed) == len(r.partitions) {
		return scan, fmt.Errorf("active sessions for %s: every partition failed: %w", userID, lastErr)
	}

	slices.SortStableFunc(scan.Sessions, func(a, b models.ActiveSession) int {
		return b.Session.StartedAt.Compare(a.Session.StartedAt)
	})
	return scan, nil
}

// ActiveSessionForPartition returns the user's open sessions in one partition.
func (r *Repository) ActiveSessionForPartition(ctx context.Context, projectType, userID string) ([]models.TaskSession, error) {
	q := docstore.From(SessionsPath(projectType)).
		Where("userId", docstore.OpEqual, userID).
		Where("endedAt", docstore.OpEqual, nil)

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	docs, err := r.store.Query(qctx, q)
	if err != nil {
		return nil, fmt.Errorf("active sessions in %s: %w", projectType, storeErr(err))
	}
	return sessionsFromDocs(projectType, docs), nil
}

// ActiveSessionForTask returns the user's open session on the task, or nil.
// If the store holds more than one, the first is returned.
func (r *Repository) ActiveSessionForTask(ctx context.Context, projectType, taskID, userID string) (*models.TaskSession, error) {
	q := docstore.From(SessionsPath(projectType)).
		Where("taskId", docstore.OpEqual, taskID).
		Where("userId", docstore.OpEqual, userID).
		Where("endedAt", docstore.OpEqual, nil)

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	docs, err := r.store.Query(qctx, q)
	if err != nil {
		return nil, fmt.Errorf("active session for task %s/%s: %w", projectType, taskID, storeErr(err))
	}
	if len(docs) == 0 {
		return nil, nil
	}
	s := sessionFromDoc(projectType, docs[0])
	return &s, nil
}

// GetSession loads a session by id.
func (r *Repository) GetSession(ctx context.Context, projectType, sessionID string) (*models.TaskSession, error) {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	doc, err := r.store.Get(qctx, SessionsPath(projectType), sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s/%s: %w", projectType, sessionID, storeErr(err))
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s/%s", models.ErrSessionNotFound, projectType, sessionID)
	}
	s := sessionFromDoc(projectType, *doc)
	return &s, nil
}

// CreateSession writes a new session and returns its id.
func (r *Repository) CreateSession(ctx context.Context, s models.TaskSession) (string, error) {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	id, err := r.store.Add(qctx, SessionsPath(s.ProjectType), sessionFields(s))
	if err != nil {
		return "", fmt.Errorf("create session: %w", storeErr(err))
	}
	return id, nil
}

// UpdateSession applies a partial update.
func (r *Repository) UpdateSession(ctx context.Context, projectType, sessionID string, patch SessionPatch) error {
	if patch.Empty() {
		return nil
	}
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.store.Update(qctx, SessionsPath(projectType), sessionID, patch.fields()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %s/%s", models.ErrSessionNotFound, projectType, sessionID)
		}
		return fmt.Errorf("update session %s/%s: %w", projectType, sessionID, storeErr(err))
	}
	return nil
}

// DeleteSession removes a session. Deleting a missing session succeeds.
func (r *Repository) DeleteSession(ctx context.Context, projectType, sessionID string) error {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.store.Delete(qctx, SessionsPath(projectType), sessionID); err != nil {
		return fmt.Errorf("delete session %s/%s: %w", projectType, sessionID, storeErr(err))
	}
	return nil
}

func sessionFields(s models.TaskSession) docstore.Fields {
	f := docstore.Fields{
		"taskId":      s.TaskID,
		"userId":      s.UserID,
		"startedAt":   s.StartedAt,
		"endedAt":     nil,
		"durationSec": s.DurationSec,
	}
	if s.EndedAt != nil {
		f["endedAt"] = *s.EndedAt
	}
	if s.Note != "" {
		f["note"] = s.Note
	}
	return f
}

func sessionFromDoc(projectType string, doc docstore.Doc) models.TaskSession {
	s := models.TaskSession{
		ID:          doc.ID,
		ProjectType: projectType,
		TaskID:      doc.Fields.String("taskId"),
		UserID:      doc.Fields.String("userId"),
		EndedAt:     doc.Fields.TimePtr("endedAt"),
		Note:        doc.Fields.String("note"),
	}
	s.StartedAt, _ = doc.Fields.Time("startedAt")
	if d, ok := doc.Fields.Int64("durationSec"); ok && d > 0 {
		s.DurationSec = d
	}
	return s
}

func sessionsFromDocs(projectType string, docs []docstore.Doc) []models.TaskSession {
	out := make([]models.TaskSession, 0, len(docs))
	for _, d := range docs {
		out = append(out, sessionFromDoc(projectType, d))
	}
	return out
}

func sortNewestFirst(sessions []models.TaskSession) {
	slices.SortStableFunc(sessions, func(a, b models.TaskSession) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
}
