package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start <project> <task-id>",
	Short: "Start tracking time on a task",
	Long: `Start tracking time on a task. Opens the interactive timer by default, use --no-ui for a plain start.
Only one timer can run per user across all projects.

Examples:
  chumo start MONO abc123         # Start timer with interactive UI
  chumo start MONO abc123 --no-ui # Start timer without UI`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		user, err := userID(c)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pointer, rec, err := loadPointer(ctx, c, user)
		if err != nil {
			return err
		}

		in := timer.StartInput{UserID: user, ProjectType: args[0], TaskID: args[1]}
		out, err := timer.StartOptimistic(ctx, c.Timer, pointer, in, c.Clock.Now())
		if err != nil {
			return err
		}
		task, err := c.Repo.GetTask(ctx, in.ProjectType, in.TaskID)
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "⏱️  Started tracking time for %s / %s: %s\n", in.ProjectType, in.TaskID, task.Title)
			fmt.Fprintf(w, "Session: %s\n", out.SessionID)
			fmt.Fprintf(w, "Started at: %s\n", out.Session.StartedAt.In(c.Config.Location()).Format("15:04:05"))
			return nil
		}
		return tui.RunTimer(ctx, *task, tui.TimerDeps{
			Pointer:      pointer,
			Reconciler:   rec,
			Stopper:      c.Timer,
			Clock:        c.Clock,
			Location:     c.Config.Location(),
			PollInterval: c.Config.Timer.PollInterval.Std(),
		}, func(format string, a ...any) { fmt.Fprintf(cmd.OutOrStdout(), format, a...) })
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop tracking time",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		user, err := userID(c)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pointer, _, err := loadPointer(ctx, c, user)
		if err != nil {
			return err
		}
		state, _ := pointer.Current()

		out, err := timer.StopCurrent(ctx, c.Timer, pointer)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "⏹️  Stopped tracking time for %s / %s\n", state.ProjectType, state.TaskID)
		fmt.Fprintf(w, "Session duration: %s (%ds)\n",
			parser.FormatDuration(time.Duration(out.DurationSec)*time.Second), out.DurationSec)
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current time tracking status",
	Long: `Show the running timer. The local pointer is checked against the store first,
so a timer stopped elsewhere is cleared without being stopped again.
--watch keeps polling and prints every change until interrupted.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		user, err := userID(c)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pointer, rec, err := loadPointer(ctx, c, user)
		if err != nil {
			return err
		}

		printStatus(cmd, c, pointer)

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		rec.OnChange(func(timer.PointerState, bool) { printStatus(cmd, c, pointer) })
		return rec.Run(ctx)
	}),
}

func printStatus(cmd *cobra.Command, c *app.Container, pointer *timer.ActivePointer) {
	w := cmd.OutOrStdout()
	state, running := pointer.Current()
	if !running {
		fmt.Fprintln(w, "No active time tracking session")
		return
	}

	title := state.TaskID
	if task, err := c.Repo.GetTask(cmd.Context(), state.ProjectType, state.TaskID); err == nil {
		title = task.Title
	}
	elapsed := c.Clock.Now().Sub(state.StartedAt)
	fmt.Fprintf(w, "⏱️  Currently tracking: %s / %s: %s\n", state.ProjectType, state.TaskID, title)
	fmt.Fprintf(w, "Session: %s\n", state.SessionID)
	fmt.Fprintf(w, "Started at: %s\n", state.StartedAt.In(c.Config.Location()).Format("15:04:05"))
	fmt.Fprintf(w, "Elapsed time: %s\n", parser.FormatDuration(elapsed))
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start timer without interactive UI")
	statusCmd.Flags().Bool("watch", false, "Keep polling and print changes")
}
