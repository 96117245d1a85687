package project

import (
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdProjectList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all managed projects",
		Long: `Display all projects currently managed by Flightdeck.

Shows project information in a table format including:
- Project name and ID
- Repository and pipeline counts
- Creation timestamp`,
		Run: func(cmd *cobra.Command, args []string) {
			projects, err := app.GetProjectService().List()
			if err != nil {
				utils.HandleCommandError("listing projects", err)
				return
			}

			out, err := output.PrintProjectList(projects)
			if err != nil {
				utils.HandleCommandError("printing project list table", err)
				return
			}

			if err := output.FprintPlain(cmd, "%s", out); err != nil {
				utils.HandleCommandError("printing project list output", err)
			}
		},
	}
}
