package transfer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// Service wires export/import to persistence.
type Service struct {
	projects    repository.ProjectRepository
	deployments repository.DeploymentRepository
	releases    repository.ReleaseRepository
	tx          repository.TxRunner

	now func() time.Time
}

func NewService(
	projects repository.ProjectRepository,
	deployments repository.DeploymentRepository,
	releases repository.ReleaseRepository,
	tx repository.TxRunner,
) *Service {
	return &Service{
		projects:    projects,
		deployments: deployments,
		releases:    releases,
		tx:          tx,
		now:         time.Now,
	}
}

// ExportProject renders one project in the requested mode.
func (s *Service) ExportProject(projectID uuid.UUID, exportType string) (*Document, error) {
	project, err := s.projects.FindByID(projectID)
	if err != nil {
		return nil, err
	}

	var deployments []*domain.Deployment
	var releases []*domain.ProductionRelease
	if exportType == ExportTypeFull {
		if deployments, err = s.deployments.ListByProjectID(projectID); err != nil {
			return nil, err
		}
		if releases, err = s.releases.ListByProjectID(projectID); err != nil {
			return nil, err
		}
	}

	return Export(project, deployments, releases, exportType, s.now())
}

// ImportProject validates the payload, then persists the rebuilt bundle in
// one transaction. Validation failures happen before any write; a write
// failure rolls the whole bundle back.
func (s *Service) ImportProject(data []byte) (*domain.Project, error) {
	bundle, err := Import(data)
	if err != nil {
		return nil, err
	}

	if err := bundle.Project.Validate(); err != nil {
		return nil, &ValidationError{Field: "project", Message: err.Error()}
	}

	var created *domain.Project
	err = s.tx.InTransaction(func(tx repository.TxSet) error {
		var err error
		if created, err = tx.Projects.Create(bundle.Project); err != nil {
			return fmt.Errorf("persisting imported project: %w", err)
		}
		for _, release := range bundle.Releases {
			if err := tx.Releases.Create(release); err != nil {
				return fmt.Errorf("persisting imported release %s: %w", release.ReleaseNumber, err)
			}
		}
		for _, deployment := range bundle.Deployments {
			if err := tx.Deployments.Create(deployment); err != nil {
				return fmt.Errorf("persisting imported deployment %s: %w", deployment.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Project imported",
		"project_id", created.ID,
		"project_name", created.Name,
		"deployments", len(bundle.Deployments),
		"releases", len(bundle.Releases))
	return created, nil
}
