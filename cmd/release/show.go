package release

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdReleaseShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show <release-id>",
		Short: "Show a release and its checklist",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			releaseID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("release show", args[0])
				return
			}

			release, err := app.GetReleaseService().Get(releaseID)
			if err != nil {
				utils.HandleCommandError("showing release", err, "release_id", releaseID)
				return
			}

			if err := output.FprintPlain(cmd, "Release %s (%s)", release.ReleaseNumber, release.Status); err != nil {
				utils.HandleCommandError("printing release output", err)
				return
			}

			out, err := output.PrintReleaseSteps(release)
			if err != nil {
				utils.HandleCommandError("printing release steps table", err)
				return
			}

			if err := output.FprintPlain(cmd, "%s", out); err != nil {
				utils.HandleCommandError("printing release steps output", err)
			}
		},
	}
}
