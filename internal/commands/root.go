package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/config"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	configPath string
	dbPath     string
	userFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "chumo",
	Short: "Work timer and time reports for Chumo projects",
	Long: `chumo tracks time against project tasks with one running timer per user,
serves the timer and report endpoints over HTTP, and exports operations
time reports as JSON or CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errNoUser is returned by commands that act for a user when none is set.
var errNoUser = errors.New("no user set, pass --user, set timer.user_id in the config or CHUMO_USER")

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if userFlag != "" {
		cfg.Timer.UserID = userFlag
	}
	if cfg.Timer.UserID == "" {
		cfg.Timer.UserID = os.Getenv("CHUMO_USER")
	}
	return cfg, nil
}

// withApp wraps a command function to build the container first
func withApp(fn func(cmd *cobra.Command, args []string, c *app.Container) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := app.New(cfg, app.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer c.Close()
		return fn(cmd, args, c)
	}
}

// userID returns the acting user.
func userID(c *app.Container) (string, error) {
	if id := strings.TrimSpace(c.Config.Timer.UserID); id != "" {
		return id, nil
	}
	return "", errNoUser
}

// loadPointer opens the persisted active pointer and reconciles it once.
func loadPointer(ctx context.Context, c *app.Container, user string) (*timer.ActivePointer, *timer.Reconciler, error) {
	path, err := timer.DefaultPointerPath()
	if err != nil {
		return nil, nil, err
	}
	pointer := timer.NewActivePointer(path)
	if err := pointer.Load(); err != nil {
		return nil, nil, err
	}
	rec := timer.NewReconciler(c.Repo, pointer, user, c.Config.Timer.PollInterval.Std(), c.Logger)
	if _, err := rec.Reconcile(ctx); err != nil {
		return nil, nil, fmt.Errorf("check running timer: %w", err)
	}
	return pointer, rec, nil
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chumo %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.chumo/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default ~/.chumo/chumo.db)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "acting user id")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
