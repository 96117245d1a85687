package project

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// MockProjectRepository for testing
type MockProjectRepository struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project

	UpdateFunc func(project *domain.Project) error
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{projects: make(map[uuid.UUID]*domain.Project)}
}

func (m *MockProjectRepository) FindByID(id uuid.UUID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MockProjectRepository) FindByName(name string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockProjectRepository) Create(project *domain.Project) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *project
	m.projects[project.ID] = &clone
	return project, nil
}

func (m *MockProjectRepository) Update(project *domain.Project) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(project)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *MockProjectRepository) List() ([]*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (m *MockProjectRepository) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func storedProject(t *testing.T, repo *MockProjectRepository) (*domain.Project, uuid.UUID) {
	t.Helper()
	repoID := uuid.New()
	project := &domain.Project{
		ID:   uuid.New(),
		Name: "shop",
		Repositories: []domain.Repository{
			{ID: repoID, Name: "shop", Owner: "acme", Repo: "shop"},
		},
		Pipelines: []domain.Pipeline{
			{
				ID:           uuid.New(),
				Name:         "backend",
				RepositoryID: repoID,
				WorkflowFile: "deploy.yml",
				Branch:       "main",
				Environment:  "staging",
			},
		},
	}
	_, err := repo.Create(project)
	require.NoError(t, err)
	return project, repoID
}

func TestService_Create(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)

	created, err := svc.Create(&domain.Project{Name: "shop"})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "shop", got.Name)
}

func TestService_Create_RejectsInvalid(t *testing.T) {
	svc := NewService(NewMockProjectRepository())

	_, err := svc.Create(&domain.Project{Name: "   "})
	assert.Error(t, err)

	// A pipeline referencing a repository the project does not have
	_, err = svc.Create(&domain.Project{
		Name: "shop",
		Pipelines: []domain.Pipeline{
			{ID: uuid.New(), Name: "backend", RepositoryID: uuid.New(), WorkflowFile: "deploy.yml", Branch: "main"},
		},
	})
	assert.Error(t, err)
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(NewMockProjectRepository())

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestService_AddRepository(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, _ := storedProject(t, repo)

	updated, err := svc.AddRepository(project.ID, domain.Repository{Name: "docs", Owner: "acme", Repo: "docs"})

	require.NoError(t, err)
	require.Len(t, updated.Repositories, 2)
	assert.NotEqual(t, uuid.Nil, updated.Repositories[1].ID)
}

func TestService_AddRepository_RequiresOwnerAndRepo(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, _ := storedProject(t, repo)

	_, err := svc.AddRepository(project.ID, domain.Repository{Name: "docs"})
	assert.Error(t, err)
}

func TestService_RemoveRepository_CascadesPipelines(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, repoID := storedProject(t, repo)

	updated, err := svc.RemoveRepository(project.ID, repoID)

	require.NoError(t, err)
	assert.Empty(t, updated.Repositories)
	assert.Empty(t, updated.Pipelines, "pipelines of the removed repository are cascaded")
}

func TestService_RemoveRepository_UnknownID(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, _ := storedProject(t, repo)

	_, err := svc.RemoveRepository(project.ID, uuid.New())
	assert.Error(t, err)
}

func TestService_AddPipeline(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, repoID := storedProject(t, repo)

	updated, err := svc.AddPipeline(project.ID, domain.Pipeline{
		Name:         "frontend",
		RepositoryID: repoID,
		WorkflowFile: "frontend.yml",
		Branch:       "main",
		Environment:  "staging",
	})

	require.NoError(t, err)
	require.Len(t, updated.Pipelines, 2)
	assert.NotEqual(t, uuid.Nil, updated.Pipelines[1].ID)
}

func TestService_AddPipeline_RejectsDanglingRepository(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, _ := storedProject(t, repo)

	_, err := svc.AddPipeline(project.ID, domain.Pipeline{
		Name:         "frontend",
		RepositoryID: uuid.New(),
		WorkflowFile: "frontend.yml",
		Branch:       "main",
	})
	assert.Error(t, err)

	// The stored project is untouched
	got, err := svc.Get(project.ID)
	require.NoError(t, err)
	assert.Len(t, got.Pipelines, 1)
}

func TestService_RemovePipeline(t *testing.T) {
	repo := NewMockProjectRepository()
	svc := NewService(repo)
	project, _ := storedProject(t, repo)

	updated, err := svc.RemovePipeline(project.ID, project.Pipelines[0].ID)

	require.NoError(t, err)
	assert.Empty(t, updated.Pipelines)
	assert.Len(t, updated.Repositories, 1, "repositories survive pipeline removal")
}
