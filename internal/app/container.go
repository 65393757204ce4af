// Package app provides the dependency container for chumo.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/config"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/db"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/logging"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/metrics"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/ordering"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/report"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/repository"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

// Container holds the wired services.
type Container struct {
	// Ports
	Store docstore.Store
	Clock models.Clock

	// Services
	Repo    *repository.Repository
	Timer   *timer.Service
	Reports *report.Cache

	// Pointer fields
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Config  *config.Config

	closer io.Closer
}

// Options overrides parts of the container, mostly for tests.
type Options struct {
	// Store replaces the configured store driver.
	Store docstore.Store
	// Clock defaults to the real clock.
	Clock models.Clock
	// LogOutput defaults to stderr.
	LogOutput io.Writer
}

// New builds a container from cfg.
func New(cfg *config.Config, opts Options) (*Container, error) {
	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}
	logger := logging.New(logOut, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	clock := opts.Clock
	if clock == nil {
		clock = models.RealClock{}
	}

	store := opts.Store
	var closer io.Closer
	if store == nil {
		var err error
		store, closer, err = openStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	repo := repository.New(store, repository.Options{
		Logger:     logger,
		Metrics:    m,
		Partitions: cfg.Partitions,
		Timeout:    cfg.Timer.StoreTimeout.Std(),
	})

	aggregator := report.NewAggregator(repo, report.Options{
		Logger:            logger,
		Metrics:           m,
		Clock:             clock,
		SubBrandPartition: cfg.SubBrandPartition,
		OperationsLabel:   cfg.Report.OperationsLabel,
		OverThresholdSec:  cfg.Report.OverThresholdSec,
	})
	reports := report.NewCache(aggregator, cfg.Report.CacheTTL.Std(), clock, m)
	// The CLI and the server may share one database file.
	if v, ok := store.(docstore.Versioner); ok {
		reports.WithVersion(v)
	}

	timerSvc := timer.NewService(repo, timer.Options{
		Clock:    clock,
		Logger:   logger,
		Metrics:  m,
		OnChange: reports.Invalidate,
	})

	return &Container{
		Store:   store,
		Clock:   clock,
		Repo:    repo,
		Timer:   timerSvc,
		Reports: reports,
		Logger:  logger,
		Metrics: m,
		Config:  cfg,
		closer:  closer,
	}, nil
}

func openStore(cfg *config.Config) (docstore.Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return docstore.NewMemory(cfg.Store.Indexes...), nil, nil
	case config.DriverSQLite, "":
		path := cfg.Store.Path
		if path == "" {
			var err error
			path, err = db.DefaultPath()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve database path: %w", err)
			}
		}
		s, err := db.Open(path, cfg.Store.Indexes)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OrderingView creates a task list view mounted now.
func (c *Container) OrderingView() *ordering.View {
	return ordering.NewView(c.Clock.Now(), c.Config.Location())
}

// Close releases the store.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
