// Package deploy owns the deployment lifecycle: triggering workflow
// dispatches, correlating them to runs, and reconciling status against
// GitHub until terminal.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/github"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// Gateway is the slice of the GitHub client the tracker needs.
type Gateway interface {
	DispatchWorkflow(ctx context.Context, owner, repo, workflowFile, ref string, inputs map[string]string) error
	GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*github.WorkflowRun, error)
}

// RunLocator finds the run a dispatch produced; nil means miss.
type RunLocator interface {
	Locate(ctx context.Context, req github.CorrelationRequest) *github.WorkflowRun
}

// TriggerOptions carries the per-trigger user input.
type TriggerOptions struct {
	BuildNumber         string
	Inputs              map[string]string
	BatchID             uuid.UUID
	GlobalReleaseNumber string
	ProductionReleaseID *uuid.UUID
}

// Tracker manages deployments from trigger through terminal status.
type Tracker struct {
	gateway     Gateway
	correlator  RunLocator
	deployments repository.DeploymentRepository

	now func() time.Time
}

func NewTracker(gateway Gateway, correlator RunLocator, deployments repository.DeploymentRepository) *Tracker {
	return &Tracker{
		gateway:     gateway,
		correlator:  correlator,
		deployments: deployments,
		now:         time.Now,
	}
}

// Trigger dispatches the pipeline's workflow and persists a pending
// deployment. A dispatch failure aborts and propagates. A correlation miss
// does not: the deployment is persisted without a run id and simply never
// advances until investigated.
func (t *Tracker) Trigger(ctx context.Context, project *domain.Project, pipeline *domain.Pipeline, opts TriggerOptions) (*domain.Deployment, error) {
	repo := project.RepositoryByID(pipeline.RepositoryID)
	if repo == nil {
		return nil, fmt.Errorf("pipeline %q references unknown repository %s", pipeline.Name, pipeline.RepositoryID)
	}

	inputs := make(map[string]string, len(pipeline.DefaultInputs)+len(opts.Inputs))
	for k, v := range pipeline.DefaultInputs {
		inputs[k] = v
	}
	for k, v := range opts.Inputs {
		inputs[k] = v
	}

	if err := t.gateway.DispatchWorkflow(ctx, repo.Owner, repo.Repo, pipeline.WorkflowFile, pipeline.Branch, inputs); err != nil {
		return nil, fmt.Errorf("dispatching workflow %s: %w", pipeline.WorkflowFile, err)
	}

	slog.Info("Workflow dispatched",
		"project_id", project.ID,
		"pipeline_id", pipeline.ID,
		"workflow_file", pipeline.WorkflowFile,
		"branch", pipeline.Branch,
		"build_number", opts.BuildNumber)

	deployment := &domain.Deployment{
		ID:                  uuid.New(),
		ProjectID:           project.ID,
		PipelineID:          pipeline.ID,
		RepositoryID:        repo.ID,
		BuildNumber:         opts.BuildNumber,
		Branch:              pipeline.Branch,
		Environment:         pipeline.Environment,
		GlobalReleaseNumber: opts.GlobalReleaseNumber,
		BatchID:             opts.BatchID,
		ProductionReleaseID: opts.ProductionReleaseID,
		Status:              domain.DeploymentStatusPending,
		StartedAt:           t.now(),
	}

	if run := t.correlator.Locate(ctx, github.CorrelationRequest{
		Owner:        repo.Owner,
		Repo:         repo.Repo,
		WorkflowFile: pipeline.WorkflowFile,
		Branch:       pipeline.Branch,
		BuildNumber:  opts.BuildNumber,
	}); run != nil {
		deployment.WorkflowRunID = &run.ID
	}

	if err := t.deployments.Create(deployment); err != nil {
		return nil, fmt.Errorf("persisting deployment: %w", err)
	}
	return deployment, nil
}

// TriggerBatch dispatches several pipelines under one batch id. Members are
// independent: one pipeline's failure neither aborts nor poisons the others.
func (t *Tracker) TriggerBatch(ctx context.Context, project *domain.Project, pipelines []domain.Pipeline, opts TriggerOptions) *domain.BatchResult {
	if opts.BatchID == uuid.Nil {
		opts.BatchID = uuid.New()
	}
	result := &domain.BatchResult{BatchID: opts.BatchID}

	for i := range pipelines {
		pipeline := &pipelines[i]
		deployment, err := t.Trigger(ctx, project, pipeline, opts)
		if err != nil {
			slog.Error("Batch member dispatch failed",
				"project_id", project.ID,
				"pipeline_id", pipeline.ID,
				"pipeline_name", pipeline.Name,
				"batch_id", opts.BatchID,
				"error", err)
			result.Failures = append(result.Failures, domain.BatchFailure{
				PipelineID:   pipeline.ID,
				PipelineName: pipeline.Name,
				Reason:       err.Error(),
			})
			continue
		}
		result.Deployments = append(result.Deployments, deployment)
	}

	return result
}

// RefreshStatuses reconciles the given deployments against GitHub run
// status. Terminal deployments and deployments without a run id are skipped
// without a network call; per-deployment failures are logged and left for
// the next cycle. Returns the deployments that changed.
func (t *Tracker) RefreshStatuses(ctx context.Context, project *domain.Project, deployments []*domain.Deployment) []*domain.Deployment {
	var updated []*domain.Deployment

	for _, deployment := range deployments {
		if !deployment.Refreshable() {
			continue
		}

		repo := project.RepositoryByID(deployment.RepositoryID)
		if repo == nil {
			// Repository was deleted from the project; leave the record as is
			continue
		}

		run, err := t.gateway.GetWorkflowRun(ctx, repo.Owner, repo.Repo, *deployment.WorkflowRunID)
		if err != nil {
			slog.Warn("Deployment status refresh failed; will retry next cycle",
				"deployment_id", deployment.ID,
				"run_id", *deployment.WorkflowRunID,
				"error", err)
			continue
		}

		status := mapRunStatus(run)
		if status == deployment.Status {
			continue
		}

		deployment.Status = status
		if status.Terminal() && deployment.CompletedAt == nil {
			completedAt := t.now()
			deployment.CompletedAt = &completedAt
		}

		if err := t.deployments.Update(deployment); err != nil {
			slog.Error("Failed to persist deployment status",
				"deployment_id", deployment.ID,
				"status", status.String(),
				"error", err)
			continue
		}

		slog.Info("Deployment status updated",
			"deployment_id", deployment.ID,
			"run_id", *deployment.WorkflowRunID,
			"status", status.String())
		updated = append(updated, deployment)
	}

	return updated
}

// mapRunStatus converts GitHub run state to the local status model.
func mapRunStatus(run *github.WorkflowRun) domain.DeploymentStatus {
	switch run.Status {
	case github.RunStatusCompleted:
		if run.Conclusion == github.RunConclusionSuccess {
			return domain.DeploymentStatusSuccess
		}
		return domain.DeploymentStatusFailure
	case github.RunStatusInProgress:
		return domain.DeploymentStatusInProgress
	default:
		// queued, waiting, requested, pending
		return domain.DeploymentStatusPending
	}
}

// Delete removes a single deployment record.
func (t *Tracker) Delete(id uuid.UUID) error {
	return t.deployments.Delete(id)
}

// DeleteBatch removes all deployments in a batch.
func (t *Tracker) DeleteBatch(batchID uuid.UUID) error {
	return t.deployments.DeleteBatch(batchID)
}
