// Package deployment provides commands for triggering and inspecting deployments.
package deployment

import "github.com/spf13/cobra"

func NewCmdDeployment() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Trigger and inspect deployments",
	}

	cmd.AddCommand(NewCmdDeploymentTrigger())
	cmd.AddCommand(NewCmdDeploymentList())
	cmd.AddCommand(NewCmdDeploymentStatus())
	cmd.AddCommand(NewCmdDeploymentRemove())
	return cmd
}
