package project

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdProjectRemove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project-id>",
		Short: "Remove a project",
		Long:  "Delete a project and all of its deployment history and production releases.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("project remove", args[0])
				return
			}

			if err := app.GetProjectService().Delete(projectID); err != nil {
				utils.HandleCommandError("removing project", err, "project_id", projectID)
				return
			}

			if err := output.FprintSuccess(cmd, "Project %s removed", projectID); err != nil {
				utils.HandleCommandError("printing project remove output", err)
			}
		},
	}
}
