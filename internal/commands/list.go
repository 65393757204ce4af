package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/ordering"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "ls <project>",
	Aliases: []string{"list"},
	Short:   "List the tasks of a project",
	Long: `List the tasks of a project in display order: the running task first, then
new unassigned tasks, then the chosen sort. Use --ui for the interactive list.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		ctx := cmd.Context()
		project := args[0]
		if !c.Repo.HasPartition(project) {
			return fmt.Errorf("%w: %s", models.ErrUnknownPartition, project)
		}

		filters, mode, err := listFilters(cmd)
		if err != nil {
			return err
		}
		tasks, err := c.Repo.ListTasks(ctx, project)
		if err != nil {
			return err
		}

		useUI, _ := cmd.Flags().GetBool("ui")
		activeTaskID := ""
		user, err := userID(c)
		if err != nil && useUI {
			return err
		}
		if user != "" {
			pointer, _, err := loadPointer(ctx, c, user)
			if err != nil {
				return err
			}
			if state, ok := pointer.Current(); ok && state.ProjectType == project {
				activeTaskID = state.TaskID
			}

			if useUI {
				return tui.RunList(ctx, tasks, tui.ListDeps{
					View:     c.OrderingView(),
					Pointer:  pointer,
					Starter:  c.Timer,
					Stopper:  c.Timer,
					Clock:    c.Clock,
					Location: c.Config.Location(),
					UserID:   user,
					Project:  project,
					Filters:  filters,
					Mode:     mode,
				})
			}
		}

		view := c.OrderingView()
		ordered := view.Order(tasks, filters, activeTaskID, mode)
		w := cmd.OutOrStdout()
		if len(ordered) == 0 {
			fmt.Fprintln(w, "No tasks found.")
			return nil
		}

		loc := c.Config.Location()
		fmt.Fprintf(w, "%-2s %-22s %-40s %-10s %-10s %s\n", "", "ID", "TITLE", "STATUS", "IT UP", "RELEASE")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, t := range ordered {
			mark := ""
			switch {
			case t.ID == activeTaskID:
				mark = "▶"
			case ordering.IsNew(t, view.MountTime()):
				mark = "*"
			}
			fmt.Fprintf(w, "%-2s %-22s %s %s %-10s %s\n",
				mark,
				t.ID,
				pad(t.Title, 40),
				pad(t.Status, 10),
				parser.FormatDate(t.ITUpDate, loc),
				parser.FormatDate(t.ReleaseDate, loc))
		}
		return nil
	}),
}

// listFilters reads the filter and sort flags.
func listFilters(cmd *cobra.Command) (ordering.Filters, ordering.SortMode, error) {
	flags := cmd.Flags()
	var f ordering.Filters
	f.Status, _ = flags.GetString("status")
	f.AssigneeID, _ = flags.GetString("assignee")
	f.LabelID, _ = flags.GetString("label")
	f.Timer, _ = flags.GetString("timer")
	f.Title, _ = flags.GetString("title")
	f.ITUpMonth, _ = flags.GetString("it-up-month")
	f.ReleaseMonth, _ = flags.GetString("release-month")
	if err := f.Validate(); err != nil {
		return f, "", fmt.Errorf("%w: %v", models.ErrInvalidFilter, err)
	}
	sort, _ := flags.GetString("sort")
	mode, err := ordering.ParseSortMode(sort)
	if err != nil {
		return f, "", fmt.Errorf("%w: %v", models.ErrInvalidFilter, err)
	}
	return f, mode, nil
}

// pad truncates or pads s to width display cells.
func pad(s string, width int) string {
	runes := []rune(s)
	for lipgloss.Width(string(runes)) > width {
		runes = runes[:len(runes)-1]
	}
	s = string(runes)
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status, all or not-completed")
	listCmd.Flags().StringP("assignee", "a", "", "Filter by assignee id")
	listCmd.Flags().StringP("label", "l", "", "Filter by label id")
	listCmd.Flags().String("timer", "", "Filter by timer: all, active or inactive")
	listCmd.Flags().StringP("title", "t", "", "Filter by title substring")
	listCmd.Flags().String("it-up-month", "", "Filter by IT up month (YYYY-MM)")
	listCmd.Flags().String("release-month", "", "Filter by release month (YYYY-MM)")
	listCmd.Flags().String("sort", "", "Sort: order, itUpDate-asc or itUpDate-desc")
	listCmd.Flags().Bool("ui", false, "Open the interactive list")
}
