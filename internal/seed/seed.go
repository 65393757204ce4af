// Package seed loads labels, tasks and sessions from YAML fixtures into a
// document store.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
)

// Fixtures is the YAML document layout.
type Fixtures struct {
	Tasks    map[string][]Task `yaml:"tasks"` // keyed by project type
	Labels   []Label           `yaml:"labels"`
	Sessions []Session         `yaml:"sessions"`
}

// Label is a label fixture. A missing projectId makes the label shared.
type Label struct {
	ProjectID *string `yaml:"projectId"`
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
}

// Task is a task fixture.
type Task struct {
	CreatedAt    time.Time  `yaml:"createdAt"`
	ITUpDate     *time.Time `yaml:"itUpDate"`
	ReleaseDate  *time.Time `yaml:"releaseDate"`
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Status       string     `yaml:"status"`
	KubunLabelID string     `yaml:"kubunLabelId"`
	Over3Reason  string     `yaml:"over3Reason"`
	AssigneeIDs  []string   `yaml:"assigneeIds"`
	Order        float64    `yaml:"order"`
}

// Session is a session fixture.
type Session struct {
	StartedAt   time.Time  `yaml:"startedAt"`
	EndedAt     *time.Time `yaml:"endedAt"`
	ID          string     `yaml:"id"`
	ProjectType string     `yaml:"projectType"`
	TaskID      string     `yaml:"taskId"`
	UserID      string     `yaml:"userId"`
	Note        string     `yaml:"note"`
	DurationSec int64      `yaml:"durationSec"`
}

// Counts reports how many documents were written.
type Counts struct {
	Labels   int
	Tasks    int
	Sessions int
}

// Parse decodes fixtures from r.
func Parse(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if err == io.EOF {
			return &fx, nil
		}
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &fx, nil
}

// LoadFile parses the fixtures file at path.
func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks fixtures against the configured partitions.
func (fx *Fixtures) Validate(partitions []string) error {
	for p := range fx.Tasks {
		if !slices.Contains(partitions, p) {
			return fmt.Errorf("tasks: %w: %s", models.ErrUnknownPartition, p)
		}
	}
	for i, s := range fx.Sessions {
		if !slices.Contains(partitions, s.ProjectType) {
			return fmt.Errorf("sessions[%d]: %w: %q", i, models.ErrUnknownPartition, s.ProjectType)
		}
		if s.TaskID == "" || s.UserID == "" || s.StartedAt.IsZero() {
			return fmt.Errorf("sessions[%d]: %w: taskId, userId and startedAt are required", i, models.ErrMissingFields)
		}
		if s.EndedAt != nil && !s.EndedAt.After(s.StartedAt) {
			return fmt.Errorf("sessions[%d]: %w", i, models.ErrInvalidSessionRange)
		}
	}
	for i, l := range fx.Labels {
		if l.Name == "" {
			return fmt.Errorf("labels[%d]: %w: name is required", i, models.ErrMissingFields)
		}
	}
	return nil
}

// Apply writes the fixtures. Documents with an id are upserted when the
// store supports it; the rest get store-assigned ids.
func Apply(ctx context.Context, store docstore.Store, fx *Fixtures) (Counts, error) {
	var c Counts

	for _, l := range fx.Labels {
		fields := docstore.Fields{"name": l.Name, "projectId": nil}
		if l.ProjectID != nil {
			fields["projectId"] = *l.ProjectID
		}
		if err := write(ctx, store, repository.LabelsCollection, l.ID, fields); err != nil {
			return c, fmt.Errorf("label %q: %w", l.Name, err)
		}
		c.Labels++
	}

	projects := make([]string, 0, len(fx.Tasks))
	for p := range fx.Tasks {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	for _, p := range projects {
		for _, t := range fx.Tasks[p] {
			fields := repository.TaskFields(models.Task{
				Title:        t.Title,
				Status:       t.Status,
				KubunLabelID: t.KubunLabelID,
				AssigneeIDs:  t.AssigneeIDs,
				CreatedAt:    t.CreatedAt,
				ITUpDate:     t.ITUpDate,
				ReleaseDate:  t.ReleaseDate,
				Order:        t.Order,
				Over3Reason:  t.Over3Reason,
			})
			if err := write(ctx, store, repository.TasksPath(p), t.ID, fields); err != nil {
				return c, fmt.Errorf("task %q: %w", t.Title, err)
			}
			c.Tasks++
		}
	}

	for _, s := range fx.Sessions {
		duration := s.DurationSec
		if s.EndedAt == nil {
			duration = 0
		}
		fields := repository.SessionFields(models.TaskSession{
			ProjectType: s.ProjectType,
			TaskID:      s.TaskID,
			UserID:      s.UserID,
			StartedAt:   s.StartedAt,
			EndedAt:     s.EndedAt,
			DurationSec: duration,
			Note:        s.Note,
		})
		if err := write(ctx, store, repository.SessionsPath(s.ProjectType), s.ID, fields); err != nil {
			return c, fmt.Errorf("session for task %q: %w", s.TaskID, err)
		}
		c.Sessions++
	}
	return c, nil
}

func write(ctx context.Context, store docstore.Store, collection, id string, fields docstore.Fields) error {
	if id != "" {
		if setter, ok := store.(docstore.Setter); ok {
			return setter.Set(ctx, collection, id, fields)
		}
	}
	_, err := store.Add(ctx, collection, fields)
	return err
}
