package deployment

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
	"github.com/flightdeck-cd/flightdeck/deploy"
	"github.com/flightdeck-cd/flightdeck/domain"
)

func NewCmdDeploymentTrigger() *cobra.Command {
	var buildNumber string
	var globalRelease string
	var pipelineNames []string
	var inputs []string

	cmd := &cobra.Command{
		Use:   "trigger <project-id>",
		Short: "Trigger pipeline deployments",
		Long: `Dispatch workflow runs for a project's pipelines.

Without --pipeline all pipelines of the project are triggered as one batch.
Each triggered run is correlated back to a workflow run and tracked until
it reaches a terminal status.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("deployment trigger", args[0])
				return
			}
			if buildNumber == "" {
				utils.HandleCommandError("triggering deployment", errMissingBuildNumber)
				return
			}

			project, err := app.GetProjectService().Get(projectID)
			if err != nil {
				utils.HandleCommandError("triggering deployment", err, "project_id", projectID)
				return
			}

			pipelines := selectPipelines(project, pipelineNames)
			if len(pipelines) == 0 {
				utils.HandleCommandError("triggering deployment", errNoPipelines)
				return
			}

			inputMap := make(map[string]string)
			for _, kv := range inputs {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					utils.HandleCommandError("triggering deployment", errInvalidInput, "input", kv)
					return
				}
				inputMap[key] = value
			}

			result := app.GetTracker().TriggerBatch(cmd.Context(), project, pipelines, deploy.TriggerOptions{
				BuildNumber:         buildNumber,
				Inputs:              inputMap,
				GlobalReleaseNumber: globalRelease,
			})

			for _, d := range result.Deployments {
				runID := "not yet correlated"
				if d.WorkflowRunID != nil {
					runID = "run " + itoa64(*d.WorkflowRunID)
				}
				if err := output.FprintSuccess(cmd, "Triggered %s (%s)", pipelineName(project, d.PipelineID), runID); err != nil {
					utils.HandleCommandError("printing trigger output", err)
					return
				}
			}
			for _, f := range result.Failures {
				if err := output.FprintWarning(cmd, "Failed %s: %s", pipelineName(project, f.PipelineID), f.Reason); err != nil {
					utils.HandleCommandError("printing trigger output", err)
					return
				}
			}

			if err := output.FprintPlain(cmd, "Batch %s: %s", result.BatchID, result.Outcome()); err != nil {
				utils.HandleCommandError("printing trigger output", err)
			}
		},
	}

	cmd.Flags().StringVarP(&buildNumber, "build", "b", "", "Build number identifying this deployment (required)")
	cmd.Flags().StringVarP(&globalRelease, "release", "R", "", "Global release number to attach")
	cmd.Flags().StringArrayVarP(&pipelineNames, "pipeline", "p", nil, "Pipeline name to trigger (repeatable; default all)")
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Workflow input as key=value (repeatable)")
	return cmd
}

func selectPipelines(project *domain.Project, names []string) []domain.Pipeline {
	if len(names) == 0 {
		return project.Pipelines
	}
	var selected []domain.Pipeline
	for _, p := range project.Pipelines {
		for _, name := range names {
			if p.Name == name {
				selected = append(selected, p)
				break
			}
		}
	}
	return selected
}

func pipelineName(project *domain.Project, pipelineID uuid.UUID) string {
	if p := project.PipelineByID(pipelineID); p != nil {
		return p.Name
	}
	return pipelineID.String()
}
