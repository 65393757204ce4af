package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for chumo",
	Long:  `Display detailed help for all chumo commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp(cmd.OutOrStdout())
	},
}

func showCustomHelp(w io.Writer) {
	fmt.Fprint(w, `
 ██████╗██╗  ██╗██╗   ██╗███╗   ███╗ ██████╗
██╔════╝██║  ██║██║   ██║████╗ ████║██╔═══██╗
██║     ███████║██║   ██║██╔████╔██║██║   ██║
██║     ██╔══██║██║   ██║██║╚██╔╝██║██║   ██║
╚██████╗██║  ██║╚██████╔╝██║ ╚═╝ ██║╚██████╔╝
 ╚═════╝╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝ ╚═════╝

chumo - work timer and operations time reports

COMMANDS:

  start <project> <task>  Start tracking time on a task
    --no-ui               Start without the interactive timer
  stop                    Stop the running timer
  status                  Show the running timer
    --watch               Keep polling and print changes

  ls <project>            List tasks in display order
    --status              all | not-completed | a status name
    --assignee            Assignee id
    --label               Label id
    --timer               all | active | inactive
    --title               Title substring
    --it-up-month         YYYY-MM
    --release-month       YYYY-MM
    --sort                order | itUpDate-asc | itUpDate-desc
    --ui                  Interactive list

    Quick actions:
      ↑/↓           Navigate tasks
      ←/→           Change page
      /             Search
      f             Cycle sort
      c             Hide or show completed tasks
      s             Start/stop timer
      esc/q         Quit

  report                  Aggregate operations time
    --from, --to          YYYY-MM-DD, ISO 8601, today, yesterday, "3 days ago"
    --type                normal | brg
    --csv                 CSV output
    --json                JSON output
    -o, --output          CSV file or directory

  sessions ls <project> <task>         List the sessions of a task
  sessions edit <project> <session>    Correct a session
    --start, --end, --user-id, --note
  sessions rm <project> <session>      Delete a session

  serve                   Serve the HTTP API
    --addr                Listen address
  seed <file.yaml>        Load fixtures into the store
  config show             Print the effective configuration
  config path             Print the config file path
  version                 Print version information
  help                    Show this help

GLOBAL FLAGS:
  --config                Config file (default ~/.chumo/config.toml)
  --db                    SQLite database path
  --user                  Acting user id (or CHUMO_USER)

`)
}
