package release

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdReleaseList() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's production releases",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("release list", args[0])
				return
			}

			releases, err := app.GetReleaseService().ListByProject(projectID)
			if err != nil {
				utils.HandleCommandError("listing releases", err, "project_id", projectID)
				return
			}

			out, err := output.PrintReleaseList(releases)
			if err != nil {
				utils.HandleCommandError("printing release list table", err)
				return
			}

			if err := output.FprintPlain(cmd, "%s", out); err != nil {
				utils.HandleCommandError("printing release list output", err)
			}
		},
	}
}
