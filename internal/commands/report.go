package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate operations time over a date window",
	Long: `Aggregate committed session time per task for tasks carrying the operations
label. Dates accept YYYY-MM-DD, ISO 8601, today, yesterday or "7 days ago".

Examples:
  chumo report --from 2025-06-01 --to 2025-06-30
  chumo report --from "7 days ago" --to today --type brg
  chumo report --from 2025-06-01 --to 2025-06-30 --csv -o .`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		flags := cmd.Flags()
		fromStr, _ := flags.GetString("from")
		toStr, _ := flags.GetString("to")
		typeStr, _ := flags.GetString("type")
		asCSV, _ := flags.GetBool("csv")
		asJSON, _ := flags.GetBool("json")
		output, _ := flags.GetString("output")

		if fromStr == "" || toStr == "" {
			return fmt.Errorf("%w: --from and --to are required", models.ErrInvalidDateRange)
		}
		typ, err := report.ParseType(typeStr)
		if err != nil {
			return err
		}
		loc := c.Config.Location()
		from, to, err := parser.ParseRange(fromStr, toStr, loc, c.Clock.Now())
		if err != nil {
			return err
		}

		r, err := c.Reports.Generate(cmd.Context(), report.Request{From: from, To: to, Type: typ})
		if err != nil {
			return err
		}
		if r.Partial() {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Some partitions could not be read: %s\n", strings.Join(r.FailedPartitions, ", "))
		}

		w := cmd.OutOrStdout()
		switch {
		case asCSV && output != "":
			path := output
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				path = filepath.Join(output, report.Filename(typ, from, to, loc))
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			defer f.Close()
			if err := report.WriteCSV(f, r); err != nil {
				return err
			}
			fmt.Fprintf(w, "📄 Report written to %s\n", path)
			return nil
		case asCSV:
			return report.WriteCSV(w, r)
		case asJSON:
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		fmt.Fprintf(w, "Report %s: %s - %s\n\n", typ, from.In(loc).Format("2006/01/02"), to.In(loc).Format("2006/01/02"))
		if len(r.Items) == 0 {
			fmt.Fprintln(w, "No operations time recorded in this window.")
			return nil
		}
		for _, it := range r.Items {
			fmt.Fprintf(w, "%-10s %s %s\n", parser.FormatSeconds(it.DurationSec), pad(it.Title, 40), it.ProjectType)
			if it.Over3Hours != nil {
				reason := *it.Over3Hours
				if reason == "" {
					reason = "(no reason given)"
				}
				fmt.Fprintf(w, "           over 3h: %s\n", reason)
			}
		}
		fmt.Fprintln(w, strings.Repeat("-", 60))
		fmt.Fprintf(w, "%-10s total\n", parser.FormatSeconds(r.TotalDurationSec))
		return nil
	}),
}

func init() {
	reportCmd.Flags().String("from", "", "Window start date")
	reportCmd.Flags().String("to", "", "Window end date, inclusive")
	reportCmd.Flags().String("type", "normal", "Report type: normal or brg")
	reportCmd.Flags().Bool("csv", false, "Write CSV")
	reportCmd.Flags().Bool("json", false, "Write JSON")
	reportCmd.Flags().StringP("output", "o", "", "CSV file or directory to write to")
}
