package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/app"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timer and report HTTP API",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, c *app.Container) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = c.Config.Server.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(c.Timer, c.Repo, c.Reports, server.Options{
			Logger:     c.Logger,
			Metrics:    c.Metrics,
			Clock:      c.Clock,
			Location:   c.Config.Location(),
			Production: c.Config.Production(),
		})
		return srv.Run(ctx, addr)
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
}
