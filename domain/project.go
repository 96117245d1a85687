// Package domain defines the core entities of Flightdeck.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is a GitHub repository reference owned by a project.
type Repository struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Owner string    `json:"owner"`
	Repo  string    `json:"repo"`
}

// Pipeline binds a workflow-dispatchable workflow file and branch within one
// of the project's repositories.
type Pipeline struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	WorkflowFile  string            `json:"workflowFile"`
	Branch        string            `json:"branch"`
	RepositoryID  uuid.UUID         `json:"repositoryId"`
	Environment   string            `json:"environment,omitempty"`
	DefaultInputs map[string]string `json:"defaultInputValues,omitempty"`
}

// IsStaging reports whether the pipeline targets a staging/QA environment,
// inferred by substring match on the environment tag.
func (p Pipeline) IsStaging() bool {
	env := strings.ToLower(p.Environment)
	return strings.Contains(env, "staging") || strings.Contains(env, "qa")
}

// IsProduction reports whether the pipeline targets a production environment.
func (p Pipeline) IsProduction() bool {
	return strings.Contains(strings.ToLower(p.Environment), "prod")
}

// Project is the root aggregate: a named set of repositories and pipelines.
// Repositories and pipelines are owned by value.
type Project struct {
	ID                  uuid.UUID
	Name                string
	Repositories        []Repository
	Pipelines           []Pipeline
	IsProductionRelease bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewProject(name string) *Project {
	return &Project{
		ID:   uuid.New(),
		Name: name,
	}
}

// Validate checks the save-time invariant: every pipeline must reference a
// repository that exists in the same project.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	repos := make(map[uuid.UUID]struct{}, len(p.Repositories))
	for _, r := range p.Repositories {
		repos[r.ID] = struct{}{}
	}
	for _, pl := range p.Pipelines {
		if _, ok := repos[pl.RepositoryID]; !ok {
			return fmt.Errorf("pipeline %q references unknown repository %s", pl.Name, pl.RepositoryID)
		}
	}
	return nil
}

// RepositoryByID returns the repository with the given id, or nil. Dangling
// references are a normal condition and resolve to nil, not an error.
func (p *Project) RepositoryByID(id uuid.UUID) *Repository {
	for i := range p.Repositories {
		if p.Repositories[i].ID == id {
			return &p.Repositories[i]
		}
	}
	return nil
}

// PipelineByID returns the pipeline with the given id, or nil.
func (p *Project) PipelineByID(id uuid.UUID) *Pipeline {
	for i := range p.Pipelines {
		if p.Pipelines[i].ID == id {
			return &p.Pipelines[i]
		}
	}
	return nil
}

// RemoveRepository deletes a repository and cascades to pipelines that
// reference it.
func (p *Project) RemoveRepository(id uuid.UUID) {
	repos := p.Repositories[:0]
	for _, r := range p.Repositories {
		if r.ID != id {
			repos = append(repos, r)
		}
	}
	p.Repositories = repos

	pipelines := p.Pipelines[:0]
	for _, pl := range p.Pipelines {
		if pl.RepositoryID != id {
			pipelines = append(pipelines, pl)
		}
	}
	p.Pipelines = pipelines
}
