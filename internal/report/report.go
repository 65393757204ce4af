// Package report aggregates committed session durations per task over a
// date window, restricted to tasks carrying the operations label, and
// renders the result as JSON or CSV.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/metrics"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// Type selects which partitions a report covers.
type Type string

// Report types.
const (
	// TypeNormal covers every partition except the sub-brand one.
	TypeNormal Type = "normal"
	// TypeBRG covers only the sub-brand partition.
	TypeBRG Type = "brg"
)

// ParseType parses a report type. An empty string means TypeNormal.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "", TypeNormal:
		return TypeNormal, nil
	case TypeBRG:
		return TypeBRG, nil
	default:
		return "", fmt.Errorf("%w: %q, use normal or brg", models.ErrInvalidReportType, s)
	}
}

// DefaultOverThresholdSec is the 3-hour line above which a task's
// justification is reported.
const DefaultOverThresholdSec = 10800

// Item is one task's aggregated duration.
type Item struct {
	// Over3Hours carries the task's justification when the duration is over
	// the threshold, even if it is empty. It is nil otherwise.
	Over3Hours  *string `json:"over3hours,omitempty"`
	Title       string  `json:"title"`
	TaskID      string  `json:"taskId"`
	ProjectType string  `json:"projectType"`
	DurationSec int64   `json:"durationSec"`
}

// Report is the aggregation result.
type Report struct {
	From             time.Time `json:"-"`
	To               time.Time `json:"-"`
	Type             Type      `json:"-"`
	Items            []Item    `json:"items"`
	FailedPartitions []string  `json:"failedPartitions,omitempty"`
	TotalDurationSec int64     `json:"totalDurationSec"`
}

// Partial reports whether some partitions could not be read.
func (r *Report) Partial() bool {
	return len(r.FailedPartitions) > 0
}

// Request is a report window and selector.
type Request struct {
	From time.Time
	To   time.Time
	Type Type
}

// Source is the data the aggregator reads.
type Source interface {
	Partitions() []string
	SharedLabelID(ctx context.Context, name string) (string, bool, error)
	TasksWithLabel(ctx context.Context, projectType, labelID string) ([]models.Task, error)
	SessionsForTaskInRange(ctx context.Context, projectType, taskID string, from, to time.Time) ([]models.TaskSession, error)
}

// Options configures an Aggregator.
// Fields are ordered to minimize memory padding.
type Options struct {
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	Clock             models.Clock
	SubBrandPartition string
	OperationsLabel   string
	OverThresholdSec  int64
}

// Aggregator builds reports from a Source.
type Aggregator struct {
	source    Source
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     models.Clock
	subBrand  string
	label     string
	threshold int64
}

// NewAggregator creates an Aggregator.
func NewAggregator(source Source, opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = models.RealClock{}
	}
	threshold := opts.OverThresholdSec
	if threshold <= 0 {
		threshold = DefaultOverThresholdSec
	}
	return &Aggregator{
		source:    source,
		logger:    logger,
		metrics:   opts.Metrics,
		clock:     clock,
		subBrand:  opts.SubBrandPartition,
		label:     opts.OperationsLabel,
		threshold: threshold,
	}
}

// Generate aggregates the request's window. A missing operations label
// yields an empty report. A failing partition is skipped and listed in
// FailedPartitions; an unavailable store aborts.
func (a *Aggregator) Generate(ctx context.Context, req Request) (*Report, error) {
	if req.From.IsZero() || req.To.IsZero() || req.From.After(req.To) {
		return nil, fmt.Errorf("%w: from and to are required and from must not be after to", models.ErrInvalidDateRange)
	}
	if _, err := ParseType(string(req.Type)); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = TypeNormal
	}

	began := a.clock.Now()
	out := &Report{From: req.From, To: req.To, Type: req.Type, Items: []Item{}}

	labelID, ok, err := a.source.SharedLabelID(ctx, a.label)
	if err != nil {
		return nil, fmt.Errorf("resolve operations label: %w", err)
	}
	if !ok {
		a.logger.Info("operations label not found, returning empty report", "label", a.label)
		return out, nil
	}

	scanned := 0
	for _, p := range a.source.Partitions() {
		if (p == a.subBrand) != (req.Type == TypeBRG) {
			continue
		}
		scanned++

		items, err := a.partition(ctx, p, labelID, req)
		if err != nil {
			if errors.Is(err, models.ErrRepositoryUnavailable) {
				return nil, err
			}
			a.logger.Warn("partition scan failed, skipping",
				"partition", p, "operation", "report", "error", err)
			a.metrics.PartitionFailure(p, "report")
			out.FailedPartitions = append(out.FailedPartitions, p)
		}
		out.Items = append(out.Items, items...)
	}
	if scanned > 0 && len(out.FailedPartitions) == scanned {
		return nil, fmt.Errorf("report: every partition failed")
	}

	slices.SortStableFunc(out.Items, func(x, y Item) int {
		switch {
		case x.DurationSec > y.DurationSec:
			return -1
		case x.DurationSec < y.DurationSec:
			return 1
		default:
			return 0
		}
	})
	for _, it := range out.Items {
		out.TotalDurationSec += it.DurationSec
	}

	a.metrics.ObserveReport(string(req.Type), a.clock.Now().Sub(began))
	a.logger.Info("report generated", "type", req.Type,
		"items", len(out.Items), "totalDurationSec", out.TotalDurationSec,
		"failedPartitions", len(out.FailedPartitions))
	return out, nil
}

// partition aggregates one partition. Items collected before a failure are
// returned along with the error.
func (a *Aggregator) partition(ctx context.Context, projectType, labelID string, req Request) ([]Item, error) {
	tasks, err := a.source.TasksWithLabel(ctx, projectType, labelID)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, task := range tasks {
		if task.KubunLabelID != labelID {
			continue
		}
		sessions, err := a.source.SessionsForTaskInRange(ctx, projectType, task.ID, req.From, req.To)
		if err != nil {
			return items, err
		}

		var total int64
		for _, s := range sessions {
			if s.StartedAt.Before(req.From) || s.StartedAt.After(req.To) {
				continue
			}
			total += s.EffectiveDurationSec()
		}
		if total <= 0 {
			continue
		}

		item := Item{
			Title:       task.Title,
			DurationSec: total,
			TaskID:      task.ID,
			ProjectType: projectType,
		}
		if total > a.threshold {
			reason := task.Over3Reason
			item.Over3Hours = &reason
		}
		items = append(items, item)
	}
	return items, nil
}
