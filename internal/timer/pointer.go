package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
)

// pendingPrefix marks a placeholder session id awaiting confirmation.
const pendingPrefix = "pending-"

// PointerState identifies the session the client believes is running.
type PointerState struct {
	StartedAt   time.Time `json:"startedAt"`
	ProjectType string    `json:"projectType"`
	TaskID      string    `json:"taskId"`
	SessionID   string    `json:"sessionId"`
}

// Tentative reports whether the state is an unconfirmed optimistic start.
func (s PointerState) Tentative() bool {
	return strings.HasPrefix(s.SessionID, pendingPrefix)
}

func (s PointerState) same(o PointerState) bool {
	return s.ProjectType == o.ProjectType && s.TaskID == o.TaskID &&
		s.SessionID == o.SessionID && s.StartedAt.Equal(o.StartedAt)
}

// ActivePointer is the client's single optional view of its running
// session. It is either idle or points at one session, and can be
// persisted to a file so it survives restarts.
type ActivePointer struct {
	current *PointerState
	path    string
	mu      sync.Mutex
}

// NewActivePointer creates an idle pointer persisted at path. An empty path
// keeps the pointer in memory only.
func NewActivePointer(path string) *ActivePointer {
	return &ActivePointer{path: path}
}

// DefaultPointerPath returns ~/.chumo/active.json.
func DefaultPointerPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chumo", "active.json"), nil
}

// Load reads the persisted state. A missing file leaves the pointer idle.
func (p *ActivePointer) Load() error {
	if p.path == "" {
		return nil
	}
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read active pointer: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(data) == 0 || string(data) == "null" {
		p.current = nil
		return nil
	}
	var state PointerState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse active pointer: %w", err)
	}
	p.current = &state
	return nil
}

// Current returns the state and whether the pointer is running.
func (p *ActivePointer) Current() (PointerState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return PointerState{}, false
	}
	return *p.current, true
}

// Set points at a confirmed running session.
func (p *ActivePointer) Set(state PointerState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &state
	return p.saveLocked()
}

// Clear returns the pointer to idle.
func (p *ActivePointer) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	return p.saveLocked()
}

// Pending is the handle of an in-flight optimistic start.
type Pending struct {
	prev  *PointerState
	token string
}

// Token returns the placeholder session id.
func (pd Pending) Token() string {
	return pd.token
}

// Begin tentatively marks the task as running under a placeholder id.
// Nothing is persisted until Confirm.
func (p *ActivePointer) Begin(projectType, taskID string, now time.Time) Pending {
	p.mu.Lock()
	defer p.mu.Unlock()
	pd := Pending{prev: p.current, token: pendingPrefix + uuid.NewString()}
	p.current = &PointerState{
		ProjectType: projectType,
		TaskID:      taskID,
		SessionID:   pd.token,
		StartedAt:   now,
	}
	return pd
}

// Confirm replaces the placeholder with the real session id. It is a no-op
// when the pointer has moved on since Begin.
func (p *ActivePointer) Confirm(pd Pending, sessionID string, startedAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.SessionID != pd.token {
		return nil
	}
	p.current.SessionID = sessionID
	if !startedAt.IsZero() {
		p.current.StartedAt = startedAt
	}
	return p.saveLocked()
}

// Rollback restores the state that preceded Begin. It is a no-op when the
// pointer has moved on since Begin.
func (p *ActivePointer) Rollback(pd Pending) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.SessionID != pd.token {
		return
	}
	p.current = pd.prev
}

// Revalidate replaces the pointer with server truth from scan and reports
// whether it changed. A tentative pointer is left alone while its start is
// in flight, as is a pointer into a partition the scan could not read.
func (p *ActivePointer) Revalidate(scan repository.ActiveScan) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Tentative() {
		return false, nil
	}

	if len(scan.Sessions) == 0 {
		if p.current == nil {
			return false, nil
		}
		if slices.Contains(scan.Failed, p.current.ProjectType) {
			return false, nil
		}
		p.current = nil
		return true, p.saveLocked()
	}

	active := scan.Sessions[0]
	next := PointerState{
		ProjectType: active.ProjectType,
		TaskID:      active.TaskID(),
		SessionID:   active.SessionID,
		StartedAt:   active.Session.StartedAt,
	}
	if p.current != nil && p.current.same(next) {
		return false, nil
	}
	p.current = &next
	return true, p.saveLocked()
}

func (p *ActivePointer) saveLocked() error {
	if p.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create pointer directory: %w", err)
	}
	data, err := json.MarshalIndent(p.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode active pointer: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return fmt.Errorf("write active pointer: %w", err)
	}
	return nil
}

// Starter starts timers on the server.
type Starter interface {
	Start(ctx context.Context, in StartInput) (*StartOutput, error)
}

// Stopper stops timers on the server.
type Stopper interface {
	Stop(ctx context.Context, in StopInput) (*StopOutput, error)
}

// StartOptimistic marks the pointer running before the server answers,
// then confirms the real session id or rolls back on any error.
func StartOptimistic(ctx context.Context, starter Starter, pointer *ActivePointer, in StartInput, now time.Time) (*StartOutput, error) {
	pd := pointer.Begin(in.ProjectType, in.TaskID, now)
	out, err := starter.Start(ctx, in)
	if err != nil {
		pointer.Rollback(pd)
		return nil, err
	}
	if err := pointer.Confirm(pd, out.SessionID, out.Session.StartedAt); err != nil {
		return out, err
	}
	return out, nil
}

// ErrIdle is returned when stopping with no running pointer.
var ErrIdle = errors.New("no timer is running")

// StopCurrent stops the session the pointer refers to and clears it.
func StopCurrent(ctx context.Context, stopper Stopper, pointer *ActivePointer) (*StopOutput, error) {
	state, ok := pointer.Current()
	if !ok {
		return nil, ErrIdle
	}
	if state.Tentative() {
		return nil, fmt.Errorf("timer start for task %s is still pending", state.TaskID)
	}
	out, err := stopper.Stop(ctx, StopInput{ProjectType: state.ProjectType, SessionID: state.SessionID})
	if err != nil {
		return nil, err
	}
	return out, pointer.Clear()
}
