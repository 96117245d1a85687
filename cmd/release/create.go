package release

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdReleaseCreate() *cobra.Command {
	var number string

	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a production release",
		Long: `Open a new production release checklist for a project.

Without --number a release number is suggested from the current year and
month, with a sequence suffix when needed.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("release create", args[0])
				return
			}

			if number == "" {
				if number, err = app.GetReleaseService().SuggestNumber(projectID); err != nil {
					utils.HandleCommandError("creating release", err, "project_id", projectID)
					return
				}
			}

			created, err := app.GetReleaseService().Create(projectID, number)
			if err != nil {
				utils.HandleCommandError("creating release", err, "project_id", projectID)
				return
			}

			if err := output.FprintSuccess(cmd, "Release %s created with ID %s", created.ReleaseNumber, created.ID); err != nil {
				utils.HandleCommandError("printing release create output", err)
			}
		},
	}

	cmd.Flags().StringVarP(&number, "number", "n", "", "Release number (default suggested from date)")
	return cmd
}
