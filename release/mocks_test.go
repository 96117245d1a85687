package release

import (
	"context"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/github"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// MockReleaseRepository is an in-memory release store for testing
type MockReleaseRepository struct {
	releases map[uuid.UUID]*domain.ProductionRelease

	UpdateFunc func(release *domain.ProductionRelease) error
}

func NewMockReleaseRepository() *MockReleaseRepository {
	return &MockReleaseRepository{releases: make(map[uuid.UUID]*domain.ProductionRelease)}
}

func (m *MockReleaseRepository) FindByID(id uuid.UUID) (*domain.ProductionRelease, error) {
	r, ok := m.releases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockReleaseRepository) FindByNumber(projectID uuid.UUID, releaseNumber string) (*domain.ProductionRelease, error) {
	for _, r := range m.releases {
		if r.ProjectID == projectID && r.ReleaseNumber == releaseNumber {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockReleaseRepository) Create(release *domain.ProductionRelease) error {
	copied := *release
	m.releases[release.ID] = &copied
	return nil
}

func (m *MockReleaseRepository) Update(release *domain.ProductionRelease) error {
	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(release); err != nil {
			return err
		}
	}
	copied := *release
	m.releases[release.ID] = &copied
	return nil
}

func (m *MockReleaseRepository) ListByProjectID(projectID uuid.UUID) ([]*domain.ProductionRelease, error) {
	var out []*domain.ProductionRelease
	for _, r := range m.releases {
		if r.ProjectID == projectID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockReleaseRepository) Delete(id uuid.UUID) error {
	delete(m.releases, id)
	return nil
}

// MockSettingsRepository is an in-memory key-value store for testing
type MockSettingsRepository struct {
	values map[string]string
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{values: make(map[string]string)}
}

func (m *MockSettingsRepository) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (m *MockSettingsRepository) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MockSettingsRepository) Delete(key string) error {
	delete(m.values, key)
	return nil
}

// MockDeploymentLister is an in-memory deployment store for testing
type MockDeploymentLister struct {
	deployments []*domain.Deployment
}

func (m *MockDeploymentLister) FindByID(id uuid.UUID) (*domain.Deployment, error) {
	for _, d := range m.deployments {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDeploymentLister) Create(deployment *domain.Deployment) error {
	m.deployments = append(m.deployments, deployment)
	return nil
}

func (m *MockDeploymentLister) Update(deployment *domain.Deployment) error {
	return nil
}

func (m *MockDeploymentLister) ListByProjectID(projectID uuid.UUID) ([]*domain.Deployment, error) {
	var out []*domain.Deployment
	for _, d := range m.deployments {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockDeploymentLister) ListByReleaseID(releaseID uuid.UUID) ([]*domain.Deployment, error) {
	var out []*domain.Deployment
	for _, d := range m.deployments {
		if d.ProductionReleaseID != nil && *d.ProductionReleaseID == releaseID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockDeploymentLister) Delete(id uuid.UUID) error {
	return nil
}

func (m *MockDeploymentLister) DeleteBatch(batchID uuid.UUID) error {
	return nil
}

// MockReleaseCreator for testing
type MockReleaseCreator struct {
	CreateReleaseFunc func(ctx context.Context, owner, repo string, release github.NewRelease) (*github.Release, error)
	Created           []github.NewRelease
}

func (m *MockReleaseCreator) CreateRelease(ctx context.Context, owner, repo string, release github.NewRelease) (*github.Release, error) {
	m.Created = append(m.Created, release)
	if m.CreateReleaseFunc != nil {
		return m.CreateReleaseFunc(ctx, owner, repo, release)
	}
	return &github.Release{TagName: release.TagName, Name: release.Name}, nil
}
