// Package project provides commands for managing Flightdeck projects.
package project

import "github.com/spf13/cobra"

func NewCmdProject() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage deployment projects",
	}

	cmd.AddCommand(NewCmdProjectList())
	cmd.AddCommand(NewCmdProjectAdd())
	cmd.AddCommand(NewCmdProjectRemove())
	cmd.AddCommand(NewCmdProjectShow())
	cmd.AddCommand(NewCmdProjectExport())
	cmd.AddCommand(NewCmdProjectImport())
	return cmd
}
