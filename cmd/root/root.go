// Package root implements the command line interface for Flightdeck.
package root

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/deployment"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/project"
	"github.com/flightdeck-cd/flightdeck/cmd/release"
	"github.com/flightdeck-cd/flightdeck/cmd/server"
	"github.com/flightdeck-cd/flightdeck/cmd/token"
	"github.com/flightdeck-cd/flightdeck/cmd/version"
	"github.com/flightdeck-cd/flightdeck/config"
	"github.com/flightdeck-cd/flightdeck/logging"
)

func Execute() {
	if err := NewCmdRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCmdRoot() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "flightdeck",
		Short: "Deployment orchestration console for GitHub Actions",
		Long: `Flightdeck manages deployments driven by GitHub Actions workflow dispatch.
It registers projects with repositories and pipelines, triggers workflow runs,
tracks their status, and walks production releases through a sign-off checklist.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := config.NewConfig(dataDir)
			if err != nil {
				log.Fatalf("Failed to initialize configuration: %s", err)
			}

			colorDisabled := !cfg.ColorEnabled
			if output.NoColor.IsSet() {
				colorDisabled = true // --no-color flag overrides config
			}
			output.InitColors(colorDisabled)

			logLevel := cfg.LogLevel
			if logging.LogLevel.IsSet() {
				logLevel = logging.LogLevel.String()
			}
			logging.InitLogging(logLevel)

			// Key generation and version must work before any key is configured
			if cmd.Name() == "keygen" || cmd.Name() == "version" {
				return
			}

			if err := app.InitializeWithConfig(cfg); err != nil {
				log.Fatalf("Failed to initialize application: %s", err)
			}
		},
	}

	cmd.PersistentFlags().
		StringVarP(&dataDir, "data-dir", "d", "", "Data directory for Flightdeck configuration and state")
	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(project.NewCmdProject())
	cmd.AddCommand(deployment.NewCmdDeployment())
	cmd.AddCommand(release.NewCmdRelease())
	cmd.AddCommand(token.NewCmdToken())
	cmd.AddCommand(server.NewCmdServer())
	cmd.AddCommand(version.NewCmdVersion())
	return cmd
}
