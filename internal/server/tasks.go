package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/ordering"
)

type taskItem struct {
	models.Task
	Active bool `json:"active"`
	New    bool `json:"new"`
}

// handleListTasks returns a partition's tasks filtered and in display order.
// userId, when given, marks the caller's running task so it sorts first.
func (s *Server) handleListTasks(c *gin.Context) {
	projectType := c.Param("projectId")
	if !s.tasks.HasPartition(projectType) {
		s.writeError(c, "failed to list tasks", fmt.Errorf("%w: %s", models.ErrUnknownPartition, projectType))
		return
	}

	filters := ordering.Filters{
		Status:       c.Query("status"),
		AssigneeID:   c.Query("assignee"),
		LabelID:      c.Query("label"),
		Timer:        c.Query("timer"),
		Title:        c.Query("title"),
		ITUpMonth:    c.Query("itUpMonth"),
		ReleaseMonth: c.Query("releaseMonth"),
	}
	if err := filters.Validate(); err != nil {
		s.writeError(c, "invalid filters", fmt.Errorf("%w: %v", models.ErrInvalidFilter, err))
		return
	}
	mode, err := ordering.ParseSortMode(c.Query("sort"))
	if err != nil {
		s.writeError(c, "invalid sort", fmt.Errorf("%w: %v", models.ErrInvalidFilter, err))
		return
	}

	ctx := c.Request.Context()
	var activeTaskID string
	if userID := c.Query("userId"); userID != "" {
		active, _, err := s.timer.Active(ctx, userID)
		if err != nil {
			s.writeError(c, "failed to read active session", err)
			return
		}
		if active != nil && active.ProjectType == projectType {
			activeTaskID = active.TaskID()
		}
	}

	tasks, err := s.tasks.ListTasks(ctx, projectType)
	if err != nil {
		s.writeError(c, "failed to list tasks", err)
		return
	}

	view := ordering.NewView(s.clock.Now(), s.loc)
	ordered := view.Order(tasks, filters, activeTaskID, mode)
	items := make([]taskItem, len(ordered))
	for i, t := range ordered {
		items[i] = taskItem{
			Task:   t,
			Active: activeTaskID != "" && t.ID == activeTaskID,
			New:    ordering.IsNew(t, view.MountTime()),
		}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": items})
}
