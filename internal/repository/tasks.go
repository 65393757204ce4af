package repository

import (
	"context"
	"fmt"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// ListTasks returns every task in a partition.
func (r *Repository) ListTasks(ctx context.Context, projectType string) ([]models.Task, error) {
	return r.queryTasks(ctx, projectType, docstore.From(TasksPath(projectType)))
}

// TasksWithLabel returns the partition's tasks carrying labelID as their
// kubun label.
func (r *Repository) TasksWithLabel(ctx context.Context, projectType, labelID string) ([]models.Task, error) {
	q := docstore.From(TasksPath(projectType)).Where("kubunLabelId", docstore.OpEqual, labelID)
	return r.queryTasks(ctx, projectType, q)
}

func (r *Repository) queryTasks(ctx context.Context, projectType string, q docstore.Query) ([]models.Task, error) {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	docs, err := r.store.Query(qctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tasks in %s: %w", projectType, storeErr(err))
	}
	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, taskFromDoc(projectType, d))
	}
	return tasks, nil
}

// GetTask retrieves a task by ID
func (r *Repository) GetTask(ctx context.Context, projectType, taskID string) (*models.Task, error) {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	doc, err := r.store.Get(qctx, TasksPath(projectType), taskID)
	if err != nil {
		return nil, fmt.Errorf("get task %s/%s: %w", projectType, taskID, storeErr(err))
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s/%s", models.ErrTaskNotFound, projectType, taskID)
	}
	t := taskFromDoc(projectType, *doc)
	return &t, nil
}

// SharedLabelID returns the id of the cross-project label named name.
// The second result is false when no such label exists.
func (r *Repository) SharedLabelID(ctx context.Context, name string) (string, bool, error) {
	q := docstore.From(LabelsCollection).
		Where("name", docstore.OpEqual, name).
		Where("projectId", docstore.OpEqual, nil)

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	docs, err := r.store.Query(qctx, q)
	if err != nil {
		return "", false, fmt.Errorf("find label %q: %w", name, storeErr(err))
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	return docs[0].ID, true, nil
}

// ListLabels returns every label.
func (r *Repository) ListLabels(ctx context.Context) ([]models.Label, error) {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()
	docs, err := r.store.Query(qctx, docstore.From(LabelsCollection))
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", storeErr(err))
	}
	labels := make([]models.Label, 0, len(docs))
	for _, d := range docs {
		labels = append(labels, models.Label{
			ID:        d.ID,
			Name:      d.Fields.String("name"),
			ProjectID: d.Fields.StringPtr("projectId"),
		})
	}
	return labels, nil
}

// TaskFields converts a task to document fields.
func TaskFields(t models.Task) docstore.Fields {
	f := docstore.Fields{
		"title":        t.Title,
		"status":       t.Status,
		"kubunLabelId": t.KubunLabelID,
		"assigneeIds":  append([]string{}, t.AssigneeIDs...),
		"createdAt":    t.CreatedAt,
		"order":        t.Order,
		"itUpDate":     nil,
		"releaseDate":  nil,
	}
	if t.ITUpDate != nil {
		f["itUpDate"] = *t.ITUpDate
	}
	if t.ReleaseDate != nil {
		f["releaseDate"] = *t.ReleaseDate
	}
	if t.Over3Reason != "" {
		f["over3Reason"] = t.Over3Reason
	}
	return f
}

// SessionFields converts a session to document fields.
func SessionFields(s models.TaskSession) docstore.Fields {
	return sessionFields(s)
}

func taskFromDoc(projectType string, doc docstore.Doc) models.Task {
	t := models.Task{
		ID:           doc.ID,
		ProjectType:  projectType,
		Title:        doc.Fields.String("title"),
		Status:       doc.Fields.String("status"),
		KubunLabelID: doc.Fields.String("kubunLabelId"),
		AssigneeIDs:  doc.Fields.Strings("assigneeIds"),
		ITUpDate:     doc.Fields.TimePtr("itUpDate"),
		ReleaseDate:  doc.Fields.TimePtr("releaseDate"),
		Over3Reason:  doc.Fields.String("over3Reason"),
	}
	t.CreatedAt, _ = doc.Fields.Time("createdAt")
	t.Order, _ = doc.Fields.Float64("order")
	return t
}
