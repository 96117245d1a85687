package project

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
)

func NewCmdProjectImport() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a project from JSON",
		Long: `Import a project previously exported with 'flightdeck project export'.

All identifiers are regenerated on import, so the same document can be
imported repeatedly without collisions. Use '-' to read from stdin.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				utils.HandleCommandError("reading import file", err, "path", args[0])
				return
			}

			created, err := app.GetTransferService().ImportProject(data)
			if err != nil {
				utils.HandleCommandError("importing project", err)
				return
			}

			if err := output.FprintSuccess(cmd, "Project '%s' imported with ID %s", created.Name, created.ID); err != nil {
				utils.HandleCommandError("printing import output", err)
			}
		},
	}
}
