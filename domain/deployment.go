package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeploymentStatus represents the status of a deployment.
type DeploymentStatus int

const (
	DeploymentStatusPending DeploymentStatus = iota
	DeploymentStatusInProgress
	DeploymentStatusSuccess
	DeploymentStatusFailure
)

func (s DeploymentStatus) String() string {
	switch s {
	case DeploymentStatusPending:
		return "pending"
	case DeploymentStatusInProgress:
		return "in_progress"
	case DeploymentStatusSuccess:
		return "success"
	case DeploymentStatusFailure:
		return "failure"
	default:
		return "pending"
	}
}

func ParseDeploymentStatus(s string) (DeploymentStatus, error) {
	switch s {
	case "pending":
		return DeploymentStatusPending, nil
	case "in_progress":
		return DeploymentStatusInProgress, nil
	case "success":
		return DeploymentStatusSuccess, nil
	case "failure":
		return DeploymentStatusFailure, nil
	default:
		return DeploymentStatusPending, fmt.Errorf("invalid deployment status: %q", s)
	}
}

// Terminal reports whether the status is final. A terminal status is never
// overwritten by a later poll.
func (s DeploymentStatus) Terminal() bool {
	return s == DeploymentStatusSuccess || s == DeploymentStatusFailure
}

// Deployment is one dispatched workflow run tracked to completion. It is
// created at trigger time with status pending and mutated only by the
// polling loop until terminal.
type Deployment struct {
	ID                  uuid.UUID
	ProjectID           uuid.UUID
	PipelineID          uuid.UUID
	RepositoryID        uuid.UUID
	BuildNumber         string
	Branch              string
	Environment         string
	GlobalReleaseNumber string
	BatchID             uuid.UUID
	ProductionReleaseID *uuid.UUID
	Status              DeploymentStatus
	WorkflowRunID       *int64
	StartedAt           time.Time
	CompletedAt         *time.Time
}

// Refreshable reports whether the polling loop should fetch run status for
// this deployment: non-terminal and correlated to a run.
func (d *Deployment) Refreshable() bool {
	return !d.Status.Terminal() && d.WorkflowRunID != nil
}

// BatchOutcome classifies the aggregate result of a deploy-all action.
type BatchOutcome int

const (
	BatchOutcomeAllSucceeded BatchOutcome = iota
	BatchOutcomePartial
	BatchOutcomeAllFailed
)

func (o BatchOutcome) String() string {
	switch o {
	case BatchOutcomeAllSucceeded:
		return "all_succeeded"
	case BatchOutcomePartial:
		return "partial"
	case BatchOutcomeAllFailed:
		return "all_failed"
	default:
		return "partial"
	}
}

// BatchFailure records why one pipeline's dispatch failed inside a batch.
type BatchFailure struct {
	PipelineID   uuid.UUID
	PipelineName string
	Reason       string
}

// BatchResult is the aggregate report of one deploy-all action. Members are
// independent; partial failure is normal.
type BatchResult struct {
	BatchID     uuid.UUID
	Deployments []*Deployment
	Failures    []BatchFailure
}

func (r *BatchResult) Outcome() BatchOutcome {
	switch {
	case len(r.Failures) == 0:
		return BatchOutcomeAllSucceeded
	case len(r.Deployments) == 0:
		return BatchOutcomeAllFailed
	default:
		return BatchOutcomePartial
	}
}

// BatchStatusSummary counts one batch's deployments by their tracked status,
// long after the dispatch-time BatchResult is gone.
type BatchStatusSummary struct {
	BatchID   uuid.UUID `json:"batchId"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Active    int       `json:"active"`
}

// SummarizeBatches groups deployments by batch id, first-seen order
// preserved. Non-terminal members count as active.
func SummarizeBatches(deployments []*Deployment) []BatchStatusSummary {
	index := make(map[uuid.UUID]int, len(deployments))
	var summaries []BatchStatusSummary

	for _, d := range deployments {
		i, ok := index[d.BatchID]
		if !ok {
			i = len(summaries)
			index[d.BatchID] = i
			summaries = append(summaries, BatchStatusSummary{BatchID: d.BatchID})
		}
		switch d.Status {
		case DeploymentStatusSuccess:
			summaries[i].Succeeded++
		case DeploymentStatusFailure:
			summaries[i].Failed++
		default:
			summaries[i].Active++
		}
	}
	return summaries
}
