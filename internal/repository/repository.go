// Package repository provides typed reads and writes over the partitioned
// task, session and label collections. It hides partition iteration and
// the composite-index fallback from its callers.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/metrics"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// Collection names.
const (
	SessionsCollection = "taskSessions"
	TasksCollection    = "tasks"
	LabelsCollection   = "labels"
)

// DefaultTimeout bounds a single store round trip when Options leaves it unset.
const DefaultTimeout = 10 * time.Second

// Options configures a Repository.
// Fields are ordered to minimize memory padding.
type Options struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Partitions []string
	Timeout    time.Duration
}

// Repository reads and writes sessions, tasks and labels.
type Repository struct {
	store      docstore.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	partitions []string
	timeout    time.Duration
}

// New creates a Repository over store.
func New(store docstore.Store, opts Options) *Repository {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Repository{
		store:      store,
		logger:     logger,
		metrics:    opts.Metrics,
		partitions: slices.Clone(opts.Partitions),
		timeout:    timeout,
	}
}

// Partitions returns the configured project types in scan order.
func (r *Repository) Partitions() []string {
	return slices.Clone(r.partitions)
}

// HasPartition reports whether projectType is configured.
func (r *Repository) HasPartition(projectType string) bool {
	return slices.Contains(r.partitions, projectType)
}

// SessionsPath returns the session collection path of a partition.
func SessionsPath(projectType string) string {
	return docstore.Path("projects", projectType, SessionsCollection)
}

// TasksPath returns the task collection path of a partition.
func TasksPath(projectType string) string {
	return docstore.Path("projects", projectType, TasksCollection)
}

// withTimeout bounds one store call.
func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// query runs q, re-issuing it as degraded when the store reports a missing
// composite index. Only ErrIndexMissing triggers the fallback.
func (r *Repository) query(ctx context.Context, q, degraded docstore.Query) (docs []docstore.Doc, fellBack bool, err error) {
	qctx, cancel := r.withTimeout(ctx)
	docs, err = r.store.Query(qctx, q)
	cancel()
	if err == nil {
		return docs, false, nil
	}
	if !errors.Is(err, docstore.ErrIndexMissing) {
		return nil, false, storeErr(err)
	}

	group := docstore.Group(q.Collection)
	r.logger.Warn("composite index missing, falling back to unindexed query",
		"collection", q.Collection, "error", err)
	r.metrics.IndexFallback(group)

	qctx, cancel = r.withTimeout(ctx)
	defer cancel()
	docs, err = r.store.Query(qctx, degraded)
	if err != nil {
		return nil, true, storeErr(err)
	}
	return docs, true, nil
}

// storeErr maps connectivity failures to ErrRepositoryUnavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", models.ErrRepositoryUnavailable, err)
	}
	return err
}

// isFatal reports whether a partition failure means the store as a whole
// is unreachable.
func isFatal(err error) bool {
	return errors.Is(err, models.ErrRepositoryUnavailable)
}
