package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/timer"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Inspect and correct recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:     "ls <project> <task-id>",
	Aliases: []string{"list"},
	Short:   "List the sessions of a task, newest first",
	Args:    cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		sessions, err := c.Repo.SessionsForTask(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No sessions recorded for this task.")
			return nil
		}

		loc := c.Config.Location()
		now := c.Clock.Now()
		fmt.Fprintf(w, "%-36s %-12s %-19s %-19s %s\n", "ID", "USER", "STARTED", "ENDED", "DURATION")
		for _, s := range sessions {
			ended := "running"
			duration := parser.FormatSeconds(int64(timer.Elapsed(s, now) / time.Second))
			if s.EndedAt != nil {
				ended = s.EndedAt.In(loc).Format(time.DateTime)
				duration = parser.FormatSeconds(s.EffectiveDurationSec())
			}
			fmt.Fprintf(w, "%-36s %-12s %-19s %-19s %s\n",
				s.ID, s.UserID, s.StartedAt.In(loc).Format(time.DateTime), ended, duration)
			if s.Note != "" {
				fmt.Fprintf(w, "    note: %s\n", s.Note)
			}
		}
		return nil
	}),
}

var sessionsEditCmd = &cobra.Command{
	Use:   "edit <project> <session-id>",
	Short: "Correct the times, user or note of a session",
	Long: `Correct a session after the fact. Only the flags given are changed. When both
times are known after the edit the duration is recomputed. A running session
cannot be given an end time, stop it instead.`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		flags := cmd.Flags()
		loc := c.Config.Location()
		now := c.Clock.Now()
		in := timer.EditInput{ProjectType: args[0], SessionID: args[1]}

		if flags.Changed("start") {
			v, _ := flags.GetString("start")
			t, err := parser.ParseDate(v, loc, now)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			in.StartedAt = &t
		}
		if flags.Changed("end") {
			v, _ := flags.GetString("end")
			t, err := parser.ParseDate(v, loc, now)
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}
			in.EndedAt = &t
		}
		if flags.Changed("user-id") {
			v, _ := flags.GetString("user-id")
			in.UserID = &v
		}
		if flags.Changed("note") {
			v, _ := flags.GetString("note")
			in.Note = &v
		}
		if in.StartedAt == nil && in.EndedAt == nil && in.UserID == nil && in.Note == nil {
			return fmt.Errorf("%w: nothing to change, pass --start, --end, --user-id or --note", models.ErrMissingFields)
		}

		s, err := c.Timer.Edit(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✏️  Updated session %s (%s)\n", s.ID, parser.FormatSeconds(s.EffectiveDurationSec()))
		return nil
	}),
}

var sessionsRemoveCmd = &cobra.Command{
	Use:     "rm <project> <session-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		err := c.Timer.Delete(cmd.Context(), timer.DeleteInput{ProjectType: args[0], SessionID: args[1]})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted session %s\n", args[1])
		return nil
	}),
}

func init() {
	sessionsEditCmd.Flags().String("start", "", "New start time")
	sessionsEditCmd.Flags().String("end", "", "New end time")
	sessionsEditCmd.Flags().String("user-id", "", "New user id")
	sessionsEditCmd.Flags().String("note", "", "New note")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsEditCmd)
	sessionsCmd.AddCommand(sessionsRemoveCmd)
}
