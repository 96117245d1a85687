// Package repository provides the data access layer for projects,
// deployments, production releases and flat settings.
package repository

import (
	"encoding/json"
	"log/slog"

	"github.com/flightdeck-cd/flightdeck/db"
	"github.com/flightdeck-cd/flightdeck/domain"
)

type ProjectMapper struct{}

func (m *ProjectMapper) ToDomain(p *db.ProjectModel) *domain.Project {
	var repositories []domain.Repository
	if err := json.Unmarshal([]byte(p.Repositories), &repositories); err != nil {
		// A corrupt column should not make the project unreadable
		slog.Error("Failed to decode repositories column",
			"project_id", p.ID,
			"project_name", p.Name,
			"error", err)
		repositories = []domain.Repository{}
	}

	var pipelines []domain.Pipeline
	if err := json.Unmarshal([]byte(p.Pipelines), &pipelines); err != nil {
		slog.Error("Failed to decode pipelines column",
			"project_id", p.ID,
			"project_name", p.Name,
			"error", err)
		pipelines = []domain.Pipeline{}
	}

	return &domain.Project{
		ID:                  p.ID,
		Name:                p.Name,
		Repositories:        repositories,
		Pipelines:           pipelines,
		IsProductionRelease: p.IsProductionRelease,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func (m *ProjectMapper) ToModel(p *domain.Project) *db.ProjectModel {
	repositories, _ := json.Marshal(p.Repositories)
	pipelines, _ := json.Marshal(p.Pipelines)

	return &db.ProjectModel{
		BaseModel: db.BaseModel{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		Name:                p.Name,
		Repositories:        string(repositories),
		Pipelines:           string(pipelines),
		IsProductionRelease: p.IsProductionRelease,
	}
}

type DeploymentMapper struct{}

func (m *DeploymentMapper) ToDomain(d *db.DeploymentModel) *domain.Deployment {
	status, err := domain.ParseDeploymentStatus(d.Status)
	if err != nil {
		status = domain.DeploymentStatusPending
	}

	return &domain.Deployment{
		ID:                  d.ID,
		ProjectID:           d.ProjectID,
		PipelineID:          d.PipelineID,
		RepositoryID:        d.RepositoryID,
		BuildNumber:         d.BuildNumber,
		Branch:              d.Branch,
		Environment:         d.Environment,
		GlobalReleaseNumber: d.GlobalReleaseNumber,
		BatchID:             d.BatchID,
		ProductionReleaseID: d.ProductionReleaseID,
		Status:              status,
		WorkflowRunID:       d.WorkflowRunID,
		StartedAt:           d.StartedAt,
		CompletedAt:         d.CompletedAt,
	}
}

func (m *DeploymentMapper) ToModel(d *domain.Deployment) *db.DeploymentModel {
	return &db.DeploymentModel{
		BaseModel: db.BaseModel{
			ID: d.ID,
		},
		ProjectID:           d.ProjectID,
		PipelineID:          d.PipelineID,
		RepositoryID:        d.RepositoryID,
		BuildNumber:         d.BuildNumber,
		Branch:              d.Branch,
		Environment:         d.Environment,
		GlobalReleaseNumber: d.GlobalReleaseNumber,
		BatchID:             d.BatchID,
		ProductionReleaseID: d.ProductionReleaseID,
		Status:              d.Status.String(),
		WorkflowRunID:       d.WorkflowRunID,
		StartedAt:           d.StartedAt,
		CompletedAt:         d.CompletedAt,
	}
}

type ReleaseMapper struct{}

func (m *ReleaseMapper) ToDomain(r *db.ProductionReleaseModel) *domain.ProductionRelease {
	status, err := domain.ParseReleaseStatus(r.Status)
	if err != nil {
		status = domain.ReleaseStatusDraft
	}

	var steps []domain.Step
	if err := json.Unmarshal([]byte(r.Steps), &steps); err != nil {
		slog.Error("Failed to decode steps column",
			"release_id", r.ID,
			"release_number", r.ReleaseNumber,
			"error", err)
		steps = domain.NewProductionRelease(r.ProjectID, r.ReleaseNumber).Steps
	}

	var recipients []string
	if r.EmailRecipients != "" {
		if err := json.Unmarshal([]byte(r.EmailRecipients), &recipients); err != nil {
			recipients = nil
		}
	}

	emails := make(map[domain.StepID]*domain.EmailRecord)
	if r.Emails != "" {
		if err := json.Unmarshal([]byte(r.Emails), &emails); err != nil {
			emails = make(map[domain.StepID]*domain.EmailRecord)
		}
	}

	return &domain.ProductionRelease{
		ID:              r.ID,
		ProjectID:       r.ProjectID,
		ReleaseNumber:   r.ReleaseNumber,
		Status:          status,
		Steps:           steps,
		QASignOff:       decodeJSON[domain.SignOffRecord](r.QASignOff),
		POSignOff:       decodeJSON[domain.SignOffRecord](r.POSignOff),
		ComplianceFile:  decodeJSON[domain.ComplianceFile](r.ComplianceFile),
		EmailRecipients: recipients,
		Emails:          emails,
		CreatedAt:       r.CreatedAt,
		CompletedAt:     r.CompletedAt,
	}
}

func (m *ReleaseMapper) ToModel(r *domain.ProductionRelease) *db.ProductionReleaseModel {
	steps, _ := json.Marshal(r.Steps)
	recipients, _ := json.Marshal(r.EmailRecipients)
	emails, _ := json.Marshal(r.Emails)

	return &db.ProductionReleaseModel{
		BaseModel: db.BaseModel{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
		},
		ProjectID:       r.ProjectID,
		ReleaseNumber:   r.ReleaseNumber,
		Status:          r.Status.String(),
		Steps:           string(steps),
		QASignOff:       encodeJSON(r.QASignOff),
		POSignOff:       encodeJSON(r.POSignOff),
		ComplianceFile:  encodeJSON(r.ComplianceFile),
		EmailRecipients: string(recipients),
		Emails:          string(emails),
		CompletedAt:     r.CompletedAt,
	}
}

func decodeJSON[T any](s *string) *T {
	if s == nil || *s == "" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		slog.Error("Failed to decode JSON column", "error", err)
		return nil
	}
	return &v
}

func encodeJSON[T any](v *T) *string {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
