package deployment

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdDeploymentStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id>",
		Short: "Refresh and show deployment statuses",
		Long: `Fetch the current workflow run status for all active deployments of a
project, persist the updates, and print the refreshed list.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("deployment status", args[0])
				return
			}

			project, err := app.GetProjectService().Get(projectID)
			if err != nil {
				utils.HandleCommandError("refreshing deployments", err, "project_id", projectID)
				return
			}
			deployments, err := app.GetDeploymentRepository().ListByProjectID(projectID)
			if err != nil {
				utils.HandleCommandError("refreshing deployments", err, "project_id", projectID)
				return
			}

			app.GetTracker().RefreshStatuses(cmd.Context(), project, deployments)

			out, err := output.PrintDeploymentList(project, deployments)
			if err != nil {
				utils.HandleCommandError("printing deployment status table", err)
				return
			}

			if err := output.FprintPlain(cmd, "%s", out); err != nil {
				utils.HandleCommandError("printing deployment status output", err)
			}
		},
	}
}
