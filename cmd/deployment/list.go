package deployment

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdDeploymentList() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's deployments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("deployment list", args[0])
				return
			}

			project, err := app.GetProjectService().Get(projectID)
			if err != nil {
				utils.HandleCommandError("listing deployments", err, "project_id", projectID)
				return
			}
			deployments, err := app.GetDeploymentRepository().ListByProjectID(projectID)
			if err != nil {
				utils.HandleCommandError("listing deployments", err, "project_id", projectID)
				return
			}

			out, err := output.PrintDeploymentList(project, deployments)
			if err != nil {
				utils.HandleCommandError("printing deployment list table", err)
				return
			}

			if err := output.FprintPlain(cmd, "%s", out); err != nil {
				utils.HandleCommandError("printing deployment list output", err)
			}
		},
	}
}
