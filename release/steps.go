package release

import (
	"strings"

	"github.com/flightdeck-cd/flightdeck/domain"
)

// StepView is the derived, displayable state of one step. It is computed
// purely from the persisted release record and the release's deployments;
// the view never feeds back into storage.
type StepView struct {
	ID          domain.StepID  `json:"stepId"`
	Key         string         `json:"key"`
	Title       string         `json:"title"`
	Status      string         `json:"status"`
	CompletedAt *string        `json:"completedAt,omitempty"`
	Manual      bool           `json:"manual,omitempty"`
	CanExecute  bool           `json:"canExecute"`
	Deployments DeploymentTail `json:"deployments"`
}

// DeploymentTail summarizes the release's deployments relevant to a step.
type DeploymentTail struct {
	Active    int `json:"active"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// DeriveStepViews computes the displayed status of every step. Persisted
// step records are authoritative; for the deploy steps a pending record is
// displayed as in_progress while a matching deployment is still running.
func DeriveStepViews(release *domain.ProductionRelease, deployments []*domain.Deployment) []StepView {
	staging, production := partitionDeployments(deployments)

	views := make([]StepView, 0, len(release.Steps))
	for i := range release.Steps {
		step := release.Steps[i]

		view := StepView{
			ID:         step.ID,
			Key:        step.ID.String(),
			Title:      step.ID.Title(),
			Status:     step.Status.String(),
			Manual:     step.Manual,
			CanExecute: release.CanExecute(step.ID) && release.Status != domain.ReleaseStatusCancelled,
		}
		if step.CompletedAt != nil {
			ts := step.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
			view.CompletedAt = &ts
		}

		switch step.ID {
		case domain.StepDeployStaging:
			view.Deployments = staging
			if step.Status == domain.StepStatusPending && staging.Active > 0 {
				view.Status = domain.StepStatusInProgress.String()
			}
		case domain.StepDeployProduction:
			view.Deployments = production
			if step.Status == domain.StepStatusPending && production.Active > 0 {
				view.Status = domain.StepStatusInProgress.String()
			}
		}

		views = append(views, view)
	}
	return views
}

func partitionDeployments(deployments []*domain.Deployment) (staging, production DeploymentTail) {
	for _, d := range deployments {
		var tail *DeploymentTail
		switch {
		case isStagingEnvironment(d.Environment):
			tail = &staging
		case isProductionEnvironment(d.Environment):
			tail = &production
		default:
			continue
		}
		switch d.Status {
		case domain.DeploymentStatusSuccess:
			tail.Succeeded++
		case domain.DeploymentStatusFailure:
			tail.Failed++
		default:
			tail.Active++
		}
	}
	return staging, production
}

func isStagingEnvironment(env string) bool {
	lower := strings.ToLower(env)
	return strings.Contains(lower, "staging") || strings.Contains(lower, "qa")
}

func isProductionEnvironment(env string) bool {
	return strings.Contains(strings.ToLower(env), "prod")
}
