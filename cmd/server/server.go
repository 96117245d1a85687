// Package server implements the command for running the HTTP API server.
package server

import (
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/web"
)

func NewCmdServer() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the Flightdeck API server",
		Long:  "Starts the HTTP API server and the background deployment status pollers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resume polling for deployments that were active at last shutdown
			projects, err := app.GetProjectService().List()
			if err != nil {
				return err
			}
			for _, project := range projects {
				app.GetPollerManager().Ensure(cmd.Context(), project.ID)
			}

			return web.Run(app.GetConfig())
		},
	}
}
