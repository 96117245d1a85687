package deployment

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdDeploymentRemove() *cobra.Command {
	var batch bool

	cmd := &cobra.Command{
		Use:   "remove <deployment-id>",
		Short: "Remove a deployment record",
		Long: `Delete a deployment from the history. With --batch the argument is a
batch ID and every deployment of that batch is deleted.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("deployment remove", args[0])
				return
			}

			if batch {
				err = app.GetTracker().DeleteBatch(id)
			} else {
				err = app.GetTracker().Delete(id)
			}
			if err != nil {
				utils.HandleCommandError("removing deployment", err, "id", id)
				return
			}

			if err := output.FprintSuccess(cmd, "Deployment record(s) removed"); err != nil {
				utils.HandleCommandError("printing deployment remove output", err)
			}
		},
	}

	cmd.Flags().BoolVar(&batch, "batch", false, "Treat the argument as a batch ID")
	return cmd
}
