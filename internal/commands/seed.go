package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixtures.yaml>",
	Short: "Load labels, tasks and sessions from a YAML file",
	Long: `Load labels, tasks and sessions into the configured store. Documents with an
id are replaced, so seeding the same file twice is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		fx, err := seed.LoadFile(args[0])
		if err != nil {
			return err
		}
		if err := fx.Validate(c.Repo.Partitions()); err != nil {
			return err
		}
		counts, err := seed.Apply(cmd.Context(), c.Store, fx)
		if err != nil {
			return err
		}
		c.Reports.Invalidate()
		fmt.Fprintf(cmd.OutOrStdout(), "🌱 Seeded %d labels, %d tasks, %d sessions\n", counts.Labels, counts.Tasks, counts.Sessions)
		return nil
	}),
}
