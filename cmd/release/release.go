// Package release provides commands for managing production releases.
package release

import "github.com/spf13/cobra"

func NewCmdRelease() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Manage production releases",
	}

	cmd.AddCommand(NewCmdReleaseList())
	cmd.AddCommand(NewCmdReleaseCreate())
	cmd.AddCommand(NewCmdReleaseShow())
	cmd.AddCommand(NewCmdReleaseComplete())
	cmd.AddCommand(NewCmdReleaseSkip())
	cmd.AddCommand(NewCmdReleaseReset())
	cmd.AddCommand(NewCmdReleaseCancel())
	return cmd
}
