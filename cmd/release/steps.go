package release

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
	"github.com/flightdeck-cd/flightdeck/domain"
)

var errInvalidStep = errors.New("step must be a number between 1 and 8")

func parseStepArgs(args []string) (uuid.UUID, domain.StepID, error) {
	releaseID, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, 0, err
	}
	stepNum, err := strconv.Atoi(args[1])
	if err != nil || stepNum < 1 || stepNum > int(domain.StepCount) {
		return uuid.Nil, 0, errInvalidStep
	}
	return releaseID, domain.StepID(stepNum), nil
}

func NewCmdReleaseSkip() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <release-id> <step>",
		Short: "Skip an email step",
		Long:  "Mark an email notification step as skipped. Only email steps can be skipped.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			releaseID, stepID, err := parseStepArgs(args)
			if err != nil {
				utils.HandleCommandError("skipping release step", err)
				return
			}

			if _, err := app.GetReleaseService().SkipStep(releaseID, stepID); err != nil {
				utils.HandleCommandError("skipping release step", err, "release_id", releaseID, "step", stepID)
				return
			}

			if err := output.FprintSuccess(cmd, "Step %d (%s) skipped", stepID, stepID.Title()); err != nil {
				utils.HandleCommandError("printing step skip output", err)
			}
		},
	}
}

func NewCmdReleaseReset() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <release-id> <step>",
		Short: "Reset a step to pending",
		Long: `Return a completed or skipped step to pending and discard the evidence
recorded for it. Resetting a step of a completed release reopens the
release.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			releaseID, stepID, err := parseStepArgs(args)
			if err != nil {
				utils.HandleCommandError("resetting release step", err)
				return
			}

			if _, err := app.GetReleaseService().ResetStep(releaseID, stepID); err != nil {
				utils.HandleCommandError("resetting release step", err, "release_id", releaseID, "step", stepID)
				return
			}

			if err := output.FprintSuccess(cmd, "Step %d (%s) reset", stepID, stepID.Title()); err != nil {
				utils.HandleCommandError("printing step reset output", err)
			}
		},
	}
}

func NewCmdReleaseCancel() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <release-id>",
		Short: "Cancel a release",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			releaseID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("release cancel", args[0])
				return
			}

			cancelled, err := app.GetReleaseService().Cancel(releaseID)
			if err != nil {
				utils.HandleCommandError("cancelling release", err, "release_id", releaseID)
				return
			}

			if err := output.FprintSuccess(cmd, "Release %s cancelled", cancelled.ReleaseNumber); err != nil {
				utils.HandleCommandError("printing release cancel output", err)
			}
		},
	}
}
