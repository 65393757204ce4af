package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// Error codes returned in the "code" field.
const (
	CodeTimerAlreadyRunning = "TIMER_ALREADY_RUNNING"
	CodeMissingFields       = "MISSING_FIELDS"
	CodeInvalidParams       = "INVALID_PARAMS"
	CodeSessionAlreadyEnded = "SESSION_ALREADY_ENDED"
	CodeInvalidSessionRange = "INVALID_SESSION_RANGE"
	CodeSessionRunning      = "SESSION_RUNNING"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeTaskNotFound        = "TASK_NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{models.ErrTimerAlreadyRunning, http.StatusBadRequest, CodeTimerAlreadyRunning},
	{models.ErrMissingFields, http.StatusBadRequest, CodeMissingFields},
	{models.ErrInvalidDateRange, http.StatusBadRequest, CodeInvalidParams},
	{models.ErrInvalidReportType, http.StatusBadRequest, CodeInvalidParams},
	{models.ErrUnknownPartition, http.StatusBadRequest, CodeInvalidParams},
	{models.ErrInvalidFilter, http.StatusBadRequest, CodeInvalidParams},
	{models.ErrSessionAlreadyEnded, http.StatusBadRequest, CodeSessionAlreadyEnded},
	{models.ErrInvalidSessionRange, http.StatusBadRequest, CodeInvalidSessionRange},
	{models.ErrSessionRunning, http.StatusBadRequest, CodeSessionRunning},
	{models.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
	{models.ErrTaskNotFound, http.StatusNotFound, CodeTaskNotFound},
}

// classify returns the status and code for err.
func classify(err error) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// writeError renders err. Internal errors are logged and carry the
// underlying message in "details" outside production.
func (s *Server) writeError(c *gin.Context, message string, err error) {
	status, code := classify(err)
	body := gin.H{"success": false, "code": code}

	var conflict *models.TimerConflictError
	switch {
	case errors.As(err, &conflict):
		body["error"] = models.ErrTimerAlreadyRunning.Error()
		body["conflict"] = gin.H{
			"projectType": conflict.Conflict.ProjectType,
			"taskId":      conflict.Conflict.TaskID(),
			"sessionId":   conflict.Conflict.SessionID,
		}
	case status == http.StatusInternalServerError:
		s.logger.Error(message, "path", c.Request.URL.Path, "error", err)
		body["error"] = message
		if !s.production {
			body["details"] = err.Error()
		}
	default:
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
