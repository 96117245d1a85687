package release

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
	"github.com/flightdeck-cd/flightdeck/domain"
	releasesvc "github.com/flightdeck-cd/flightdeck/release"
)

func NewCmdReleaseComplete() *cobra.Command {
	var emailRecipients []string
	var emailSubject string
	var signOffName string
	var signOffNotes string
	var complianceFile string
	var manual bool
	var tagName string
	var relName string
	var relBody string
	var relTarget string

	cmd := &cobra.Command{
		Use:   "complete <release-id> <step>",
		Short: "Complete a release step",
		Long: `Mark a release checklist step as completed.

Steps run strictly in order. Email steps require --email-to, sign-off
steps require --sign-off-by, and the UAT step takes --compliance-file.
Deployment and tagging steps accept --manual to record an override when
the automated evidence is unavailable.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			releaseID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("release complete", args[0])
				return
			}
			stepNum, err := strconv.Atoi(args[1])
			if err != nil || stepNum < 1 || stepNum > int(domain.StepCount) {
				utils.HandleCommandError("completing release step", errInvalidStep, "step", args[1])
				return
			}
			stepID := domain.StepID(stepNum)

			input := releasesvc.StepInput{
				ManualOverride: manual,
				TagName:        tagName,
				Name:           relName,
				Body:           relBody,
				Target:         relTarget,
			}
			if len(emailRecipients) > 0 {
				input.Email = &domain.EmailRecord{
					Recipients: emailRecipients,
					Subject:    emailSubject,
					SentAt:     time.Now(),
				}
			}
			if signOffName != "" {
				input.SignOff = &domain.SignOffRecord{
					Name:     signOffName,
					Notes:    signOffNotes,
					SignedAt: time.Now(),
				}
			}
			if complianceFile != "" {
				content, err := os.ReadFile(complianceFile)
				if err != nil {
					utils.HandleCommandError("reading compliance file", err, "path", complianceFile)
					return
				}
				input.Compliance = &domain.ComplianceFile{
					FileName:   filepath.Base(complianceFile),
					Content:    content,
					UploadedAt: time.Now(),
				}
			}

			updated, err := app.GetReleaseService().CompleteStep(cmd.Context(), releaseID, stepID, input)
			if err != nil {
				utils.HandleCommandError("completing release step", err, "release_id", releaseID, "step", stepID)
				return
			}

			if err := output.FprintSuccess(cmd, "Step %d (%s) completed", stepID, stepID.Title()); err != nil {
				utils.HandleCommandError("printing step complete output", err)
				return
			}
			if updated.Status == domain.ReleaseStatusCompleted {
				if err := output.FprintSuccess(cmd, "Release %s completed", updated.ReleaseNumber); err != nil {
					utils.HandleCommandError("printing step complete output", err)
				}
			}
		},
	}

	cmd.Flags().StringArrayVar(&emailRecipients, "email-to", nil, "Email recipient (repeatable, for email steps)")
	cmd.Flags().StringVar(&emailSubject, "email-subject", "", "Email subject line")
	cmd.Flags().StringVar(&signOffName, "sign-off-by", "", "Name of the person signing off")
	cmd.Flags().StringVar(&signOffNotes, "sign-off-notes", "", "Sign-off notes")
	cmd.Flags().StringVar(&complianceFile, "compliance-file", "", "Path to a compliance document to attach")
	cmd.Flags().BoolVar(&manual, "manual", false, "Record a manual override instead of automated evidence")
	cmd.Flags().StringVar(&tagName, "tag", "", "Tag name for the GitHub release step")
	cmd.Flags().StringVar(&relName, "name", "", "Title for the GitHub release step")
	cmd.Flags().StringVar(&relBody, "notes", "", "Body for the GitHub release step")
	cmd.Flags().StringVar(&relTarget, "target", "", "Target commitish for the GitHub release step")
	return cmd
}
