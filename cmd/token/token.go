// Package token provides commands for managing the GitHub token.
package token

import (
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
	"github.com/flightdeck-cd/flightdeck/encryption"
)

func NewCmdToken() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the GitHub token",
	}

	cmd.AddCommand(NewCmdTokenSet())
	cmd.AddCommand(NewCmdTokenVerify())
	cmd.AddCommand(NewCmdTokenClear())
	cmd.AddCommand(NewCmdTokenKeygen())
	return cmd
}

func NewCmdTokenSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set <token>",
		Short: "Store the GitHub token",
		Long:  "Encrypt the GitHub personal access token and store it in the local database.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.GetTokenService().Set(args[0]); err != nil {
				utils.HandleCommandError("storing token", err)
				return
			}
			if err := output.FprintSuccess(cmd, "Token stored"); err != nil {
				utils.HandleCommandError("printing token output", err)
			}
		},
	}
}

func NewCmdTokenVerify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the stored token against GitHub",
		Run: func(cmd *cobra.Command, args []string) {
			user, err := app.GetGateway().VerifyToken(cmd.Context())
			if err != nil {
				utils.HandleCommandError("verifying token", err)
				return
			}
			if err := output.FprintSuccess(cmd, "Token is valid for user %s", user.Login); err != nil {
				utils.HandleCommandError("printing token output", err)
			}
		},
	}
}

func NewCmdTokenClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.GetTokenService().Clear(); err != nil {
				utils.HandleCommandError("clearing token", err)
				return
			}
			if err := output.FprintSuccess(cmd, "Token removed"); err != nil {
				utils.HandleCommandError("printing token output", err)
			}
		},
	}
}

func NewCmdTokenKeygen() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an encryption key",
		Long: `Generate a new encryption key for token storage.

Set the printed value as FLIGHTDECK_ENCRYPTION_KEY before storing a token.`,
		Run: func(cmd *cobra.Command, args []string) {
			key, err := encryption.GenerateKey()
			if err != nil {
				utils.HandleCommandError("generating encryption key", err)
				return
			}
			if err := output.FprintPlain(cmd, "%s", key); err != nil {
				utils.HandleCommandError("printing key output", err)
			}
		},
	}
}
