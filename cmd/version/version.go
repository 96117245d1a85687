// Package version implements the version command.
package version

import (
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the Flightdeck version",
		Run: func(cmd *cobra.Command, args []string) {
			if err := output.FprintPlain(cmd, "flightdeck %s", app.Version); err != nil {
				utils.HandleCommandError("printing version", err)
			}
		},
	}
}
