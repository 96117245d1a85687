// Package project provides project and pipeline configuration management.
package project

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// ErrProjectNotFound is returned when a project does not exist.
var ErrProjectNotFound = errors.New("project not found")

// Manager is the project configuration service interface.
type Manager interface {
	List() ([]*domain.Project, error)
	Get(id uuid.UUID) (*domain.Project, error)
	Create(project *domain.Project) (*domain.Project, error)
	Update(project *domain.Project) error
	Delete(id uuid.UUID) error

	AddRepository(projectID uuid.UUID, repo domain.Repository) (*domain.Project, error)
	RemoveRepository(projectID, repositoryID uuid.UUID) (*domain.Project, error)
	AddPipeline(projectID uuid.UUID, pipeline domain.Pipeline) (*domain.Project, error)
	RemovePipeline(projectID, pipelineID uuid.UUID) (*domain.Project, error)
}

type service struct {
	projects repository.ProjectRepository
}

func NewService(projects repository.ProjectRepository) Manager {
	return &service{projects: projects}
}

func (s *service) List() ([]*domain.Project, error) {
	return s.projects.List()
}

func (s *service) Get(id uuid.UUID) (*domain.Project, error) {
	project, err := s.projects.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return project, err
}

func (s *service) Create(project *domain.Project) (*domain.Project, error) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	created, err := s.projects.Create(project)
	if err != nil {
		return nil, err
	}
	slog.Info("Project created", "project_id", created.ID, "project_name", created.Name)
	return created, nil
}

func (s *service) Update(project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	return s.projects.Update(project)
}

func (s *service) Delete(id uuid.UUID) error {
	if err := s.projects.Delete(id); err != nil {
		return err
	}
	slog.Info("Project deleted", "project_id", id)
	return nil
}

func (s *service) AddRepository(projectID uuid.UUID, repo domain.Repository) (*domain.Project, error) {
	return s.mutate(projectID, func(project *domain.Project) error {
		if repo.ID == uuid.Nil {
			repo.ID = uuid.New()
		}
		if repo.Owner == "" || repo.Repo == "" {
			return fmt.Errorf("repository owner and name are required")
		}
		project.Repositories = append(project.Repositories, repo)
		return nil
	})
}

// RemoveRepository deletes a repository; dependent pipelines are cascaded.
func (s *service) RemoveRepository(projectID, repositoryID uuid.UUID) (*domain.Project, error) {
	return s.mutate(projectID, func(project *domain.Project) error {
		if project.RepositoryByID(repositoryID) == nil {
			return fmt.Errorf("repository %s not found in project", repositoryID)
		}
		project.RemoveRepository(repositoryID)
		return nil
	})
}

func (s *service) AddPipeline(projectID uuid.UUID, pipeline domain.Pipeline) (*domain.Project, error) {
	return s.mutate(projectID, func(project *domain.Project) error {
		if pipeline.ID == uuid.Nil {
			pipeline.ID = uuid.New()
		}
		if pipeline.WorkflowFile == "" || pipeline.Branch == "" {
			return fmt.Errorf("pipeline workflow file and branch are required")
		}
		project.Pipelines = append(project.Pipelines, pipeline)
		return nil
	})
}

func (s *service) RemovePipeline(projectID, pipelineID uuid.UUID) (*domain.Project, error) {
	return s.mutate(projectID, func(project *domain.Project) error {
		pipelines := project.Pipelines[:0]
		for _, p := range project.Pipelines {
			if p.ID != pipelineID {
				pipelines = append(pipelines, p)
			}
		}
		project.Pipelines = pipelines
		return nil
	})
}

// mutate loads, applies, validates and saves in one read-then-write cycle.
func (s *service) mutate(projectID uuid.UUID, apply func(*domain.Project) error) (*domain.Project, error) {
	project, err := s.Get(projectID)
	if err != nil {
		return nil, err
	}
	if err := apply(project); err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	if err := s.projects.Update(project); err != nil {
		return nil, err
	}
	return project, nil
}
