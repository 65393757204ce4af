// Package server exposes the timer, report and task list over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/metrics"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/report"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

// TimerService is the timer the handlers drive.
type TimerService interface {
	Start(ctx context.Context, in timer.StartInput) (*timer.StartOutput, error)
	Stop(ctx context.Context, in timer.StopInput) (*timer.StopOutput, error)
	Edit(ctx context.Context, in timer.EditInput) (*models.TaskSession, error)
	Delete(ctx context.Context, in timer.DeleteInput) error
	Active(ctx context.Context, userID string) (*models.ActiveSession, repository.ActiveScan, error)
}

// TaskReader reads tasks and session history.
type TaskReader interface {
	HasPartition(projectType string) bool
	ListTasks(ctx context.Context, projectType string) ([]models.Task, error)
	SessionsForTask(ctx context.Context, projectType, taskID string) ([]models.TaskSession, error)
}

// Options configures a Server.
// Fields are ordered to minimize memory padding.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Clock    models.Clock
	Location *time.Location
	// Production hides error details from 500 responses.
	Production bool
}

// Server is the chumo HTTP API.
type Server struct {
	timer      TimerService
	tasks      TaskReader
	reports    report.Generator
	router     *gin.Engine
	logger     *slog.Logger
	metrics    *metrics.Metrics
	clock      models.Clock
	loc        *time.Location
	production bool
}

// New creates a Server and registers its routes.
func New(timerSvc TimerService, tasks TaskReader, reports report.Generator, opts Options) *Server {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = models.RealClock{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	router := gin.New()
	s := &Server{
		timer:      timerSvc,
		tasks:      tasks,
		reports:    reports,
		router:     router,
		logger:     logger,
		metrics:    opts.Metrics,
		clock:      clock,
		loc:        loc,
		production: opts.Production,
	}

	router.Use(gin.Recovery(), s.accessLog())

	router.GET("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// Timer routes
	router.POST("/projects/:projectId/tasks/:taskId", s.handleStart)
	router.POST("/projects/:projectId/tasks", s.handleStop)
	router.GET("/users/:userId/active-session", s.handleActive)

	// Session history and corrections
	router.GET("/projects/:projectId/tasks/:taskId/sessions", s.handleTaskSessions)
	router.PATCH("/projects/:projectId/sessions/:sessionId", s.handleEditSession)
	router.DELETE("/projects/:projectId/sessions/:sessionId", s.handleDeleteSession)

	// Task list
	router.GET("/projects/:projectId/tasks", s.handleListTasks)

	// Reports
	router.GET("/time-report", s.handleReport)
	router.GET("/time-report/export", s.handleExport)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// accessLog replaces gin's logger with a structured access line and
// counts requests by route template.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.HTTPRequest(c.Request.Method, route, strconv.Itoa(status))
		s.logger.Info("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(began))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
