package project

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
	"github.com/flightdeck-cd/flightdeck/transfer"
)

func NewCmdProjectExport() *cobra.Command {
	var full bool
	var outFile string

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project to JSON",
		Long: `Export a project configuration to JSON for sharing or backup.

By default only the configuration (repositories and pipelines) is exported.
With --full the deployment history and production releases are included.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("project export", args[0])
				return
			}

			exportType := transfer.ExportTypeConfig
			if full {
				exportType = transfer.ExportTypeFull
			}

			doc, err := app.GetTransferService().ExportProject(projectID, exportType)
			if err != nil {
				utils.HandleCommandError("exporting project", err, "project_id", projectID)
				return
			}

			data, err := transfer.Marshal(doc)
			if err != nil {
				utils.HandleCommandError("encoding project export", err)
				return
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					utils.HandleCommandError("writing export file", err, "path", outFile)
					return
				}
				if err := output.FprintSuccess(cmd, "Project exported to %s", outFile); err != nil {
					utils.HandleCommandError("printing export output", err)
				}
				return
			}

			if err := output.FprintPlain(cmd, "%s", string(data)); err != nil {
				utils.HandleCommandError("printing export output", err)
			}
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include deployment history and production releases")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write export to file instead of stdout")
	return cmd
}
