package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
)

// DefaultPollInterval is how often the reconciler re-reads server truth.
const DefaultPollInterval = 5 * time.Second

// ActiveLister lists a user's open sessions across partitions.
type ActiveLister interface {
	ActiveSessionsForUser(ctx context.Context, userID string) (repository.ActiveScan, error)
}

// Reconciler keeps an ActivePointer in line with the server. It never
// stops sessions; a stale pointer is simply cleared.
// Fields are ordered to minimize memory padding.
type Reconciler struct {
	source   ActiveLister
	pointer  *ActivePointer
	logger   *slog.Logger
	onChange func(PointerState, bool)
	userID   string
	interval time.Duration
}

// NewReconciler creates a Reconciler polling every interval.
func NewReconciler(source ActiveLister, pointer *ActivePointer, userID string, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:   source,
		pointer:  pointer,
		logger:   logger,
		userID:   userID,
		interval: interval,
	}
}

// OnChange registers a callback run after the pointer changes.
func (r *Reconciler) OnChange(fn func(state PointerState, running bool)) {
	r.onChange = fn
}

// Reconcile runs one revalidation and reports whether the pointer changed.
func (r *Reconciler) Reconcile(ctx context.Context) (bool, error) {
	scan, err := r.source.ActiveSessionsForUser(ctx, r.userID)
	if err != nil {
		return false, err
	}
	if !scan.Complete() {
		r.logger.Warn("revalidation scan incomplete", "failed", scan.Failed)
	}

	changed, err := r.pointer.Revalidate(scan)
	if err != nil {
		return changed, err
	}
	if changed {
		state, running := r.pointer.Current()
		r.logger.Debug("active pointer revalidated",
			"running", running, "session", state.SessionID)
		if r.onChange != nil {
			r.onChange(state, running)
		}
	}
	return changed, nil
}

// Run reconciles immediately and then on every tick until ctx is done.
// Errors are logged and the loop keeps polling.
func (r *Reconciler) Run(ctx context.Context) error {
	if _, err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
		r.logger.Warn("revalidation failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Context canceled is a normal exit
			if ctx.Err() == context.Canceled {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("revalidation failed", "error", err)
			}
		}
	}
}
