package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

type startRequest struct {
	UserID string `json:"userId"`
}

type stopRequest struct {
	SessionID string `json:"sessionId"`
}

type editRequest struct {
	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
	UserID    *string    `json:"userId"`
	Note      *string    `json:"note"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, "invalid request body", fmt.Errorf("%w: %v", models.ErrMissingFields, err))
		return
	}

	out, err := s.timer.Start(c.Request.Context(), timer.StartInput{
		UserID:      req.UserID,
		ProjectType: c.Param("projectId"),
		TaskID:      c.Param("taskId"),
	})
	if err != nil {
		s.writeError(c, "failed to start timer", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": out.SessionID,
		"startedAt": out.Session.StartedAt,
	})
}

func (s *Server) handleStop(c *gin.Context) {
	var req stopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, "invalid request body", fmt.Errorf("%w: %v", models.ErrMissingFields, err))
		return
	}

	out, err := s.timer.Stop(c.Request.Context(), timer.StopInput{
		ProjectType: c.Param("projectId"),
		SessionID:   req.SessionID,
	})
	if err != nil {
		s.writeError(c, "failed to stop timer", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"durationMin": out.DurationMin,
		"durationSec": out.DurationSec,
	})
}

func (s *Server) handleActive(c *gin.Context) {
	active, scan, err := s.timer.Active(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.writeError(c, "failed to read active session", err)
		return
	}

	body := gin.H{"active": nil, "complete": scan.Complete()}
	if len(scan.Failed) > 0 {
		body["failedPartitions"] = scan.Failed
	}
	if active != nil {
		body["active"] = gin.H{
			"projectType": active.ProjectType,
			"taskId":      active.TaskID(),
			"sessionId":   active.SessionID,
			"startedAt":   active.Session.StartedAt,
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleTaskSessions(c *gin.Context) {
	projectType := c.Param("projectId")
	if !s.tasks.HasPartition(projectType) {
		s.writeError(c, "failed to list sessions", fmt.Errorf("%w: %s", models.ErrUnknownPartition, projectType))
		return
	}
	sessions, err := s.tasks.SessionsForTask(c.Request.Context(), projectType, c.Param("taskId"))
	if err != nil {
		s.writeError(c, "failed to list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.TaskSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleEditSession(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, "invalid request body", fmt.Errorf("%w: %v", models.ErrMissingFields, err))
		return
	}

	session, err := s.timer.Edit(c.Request.Context(), timer.EditInput{
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
		UserID:      req.UserID,
		Note:        req.Note,
		ProjectType: c.Param("projectId"),
		SessionID:   c.Param("sessionId"),
	})
	if err != nil {
		s.writeError(c, "failed to edit session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	err := s.timer.Delete(c.Request.Context(), timer.DeleteInput{
		ProjectType: c.Param("projectId"),
		SessionID:   c.Param("sessionId"),
	})
	if err != nil {
		s.writeError(c, "failed to delete session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
