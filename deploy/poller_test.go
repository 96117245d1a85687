package deploy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/flightdeck-cd/flightdeck/config"
	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// MockProjectRepository for testing
type MockProjectRepository struct {
	projects map[uuid.UUID]*domain.Project
}

func NewMockProjectRepository(projects ...*domain.Project) *MockProjectRepository {
	m := &MockProjectRepository{projects: make(map[uuid.UUID]*domain.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *MockProjectRepository) FindByID(id uuid.UUID) (*domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *MockProjectRepository) FindByName(name string) (*domain.Project, error) {
	for _, p := range m.projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockProjectRepository) Create(project *domain.Project) (*domain.Project, error) {
	m.projects[project.ID] = project
	return project, nil
}

func (m *MockProjectRepository) Update(project *domain.Project) error {
	m.projects[project.ID] = project
	return nil
}

func (m *MockProjectRepository) List() ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockProjectRepository) Delete(id uuid.UUID) error {
	delete(m.projects, id)
	return nil
}

func testPollingConfig() config.PollingConfig {
	return config.PollingConfig{
		FastInterval:    10 * time.Second,
		MediumInterval:  30 * time.Second,
		SlowInterval:    60 * time.Second,
		FastThreshold:   2 * time.Minute,
		MediumThreshold: 5 * time.Minute,
	}
}

func TestPoller_Interval_Tiers(t *testing.T) {
	now := time.Now()
	poller := NewPoller(nil, nil, nil, testPollingConfig(), uuid.New())
	poller.now = func() time.Time { return now }

	cases := []struct {
		name string
		age  time.Duration
		want time.Duration
	}{
		{"fresh deployment", 30 * time.Second, 10 * time.Second},
		{"just under fast threshold", 2*time.Minute - time.Second, 10 * time.Second},
		{"middle-aged", 3 * time.Minute, 30 * time.Second},
		{"old", 10 * time.Minute, 60 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			active := []*domain.Deployment{{StartedAt: now.Add(-tc.age)}}
			assert.Equal(t, tc.want, poller.interval(active))
		})
	}
}

func TestPoller_Interval_OldestDeploymentGoverns(t *testing.T) {
	now := time.Now()
	poller := NewPoller(nil, nil, nil, testPollingConfig(), uuid.New())
	poller.now = func() time.Time { return now }

	active := []*domain.Deployment{
		{StartedAt: now.Add(-30 * time.Second)},
		{StartedAt: now.Add(-10 * time.Minute)},
	}

	assert.Equal(t, 60*time.Second, poller.interval(active))
}

func TestPoller_Run_StopsWhenNothingActive(t *testing.T) {
	project := testProject()
	projects := NewMockProjectRepository(project)
	deployments := NewMockDeploymentRepository()

	// One terminal deployment: nothing refreshable, poller must exit on its own
	completedAt := time.Now()
	_ = deployments.Create(&domain.Deployment{
		ID:           uuid.New(),
		ProjectID:    project.ID,
		RepositoryID: project.Repositories[0].ID,
		Status:       domain.DeploymentStatusSuccess,
		CompletedAt:  &completedAt,
	})

	tracker := NewTracker(&MockGateway{}, &MockRunLocator{}, deployments)
	poller := NewPoller(tracker, projects, deployments, testPollingConfig(), project.ID)

	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop with no active deployments")
	}
}

func TestPoller_Run_StopsWhenProjectDeleted(t *testing.T) {
	project := testProject()
	projects := NewMockProjectRepository() // project already gone
	deployments := NewMockDeploymentRepository()

	// An active deployment that would keep the poller alive if ticks worked
	run := int64(7)
	_ = deployments.Create(&domain.Deployment{
		ID:            uuid.New(),
		ProjectID:     project.ID,
		RepositoryID:  project.Repositories[0].ID,
		Status:        domain.DeploymentStatusInProgress,
		WorkflowRunID: &run,
		StartedAt:     time.Now(),
	})

	tracker := NewTracker(&MockGateway{}, &MockRunLocator{}, deployments)
	poller := NewPoller(tracker, projects, deployments, testPollingConfig(), project.ID)

	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after project deletion")
	}
}

func TestManager_Ensure_SinglePollerPerProject(t *testing.T) {
	project := testProject()
	projects := NewMockProjectRepository(project)
	deployments := NewMockDeploymentRepository()
	tracker := NewTracker(&MockGateway{}, &MockRunLocator{}, deployments)
	manager := NewManager(tracker, projects, deployments, testPollingConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager.Ensure(ctx, project.ID)
	manager.Ensure(ctx, project.ID) // no-op while the first is running

	manager.mu.Lock()
	running := len(manager.cancels)
	manager.mu.Unlock()
	assert.LessOrEqual(t, running, 1)

	manager.Stop()

	manager.mu.Lock()
	assert.Empty(t, manager.cancels)
	manager.mu.Unlock()
}
