package deploy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/github"
)

// MockGateway for testing
type MockGateway struct {
	DispatchWorkflowFunc func(ctx context.Context, owner, repo, workflowFile, ref string, inputs map[string]string) error
	GetWorkflowRunFunc   func(ctx context.Context, owner, repo string, runID int64) (*github.WorkflowRun, error)

	DispatchCalls []string
	RunCalls      []int64
}

func (m *MockGateway) DispatchWorkflow(ctx context.Context, owner, repo, workflowFile, ref string, inputs map[string]string) error {
	m.DispatchCalls = append(m.DispatchCalls, workflowFile)
	if m.DispatchWorkflowFunc != nil {
		return m.DispatchWorkflowFunc(ctx, owner, repo, workflowFile, ref, inputs)
	}
	return nil
}

func (m *MockGateway) GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*github.WorkflowRun, error) {
	m.RunCalls = append(m.RunCalls, runID)
	if m.GetWorkflowRunFunc != nil {
		return m.GetWorkflowRunFunc(ctx, owner, repo, runID)
	}
	return &github.WorkflowRun{ID: runID, Status: github.RunStatusQueued}, nil
}

// MockRunLocator for testing
type MockRunLocator struct {
	LocateFunc func(ctx context.Context, req github.CorrelationRequest) *github.WorkflowRun
}

func (m *MockRunLocator) Locate(ctx context.Context, req github.CorrelationRequest) *github.WorkflowRun {
	if m.LocateFunc != nil {
		return m.LocateFunc(ctx, req)
	}
	return nil
}

// MockDeploymentRepository is an in-memory deployment store for testing
type MockDeploymentRepository struct {
	mu          sync.Mutex
	deployments map[uuid.UUID]*domain.Deployment

	CreateFunc func(deployment *domain.Deployment) error
	UpdateFunc func(deployment *domain.Deployment) error
}

func NewMockDeploymentRepository() *MockDeploymentRepository {
	return &MockDeploymentRepository{deployments: make(map[uuid.UUID]*domain.Deployment)}
}

func (m *MockDeploymentRepository) FindByID(id uuid.UUID) (*domain.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return nil, fmt.Errorf("deployment %s not found", id)
	}
	copied := *d
	return &copied, nil
}

func (m *MockDeploymentRepository) Create(deployment *domain.Deployment) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(deployment); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *deployment
	m.deployments[deployment.ID] = &copied
	return nil
}

func (m *MockDeploymentRepository) Update(deployment *domain.Deployment) error {
	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(deployment); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *deployment
	m.deployments[deployment.ID] = &copied
	return nil
}

func (m *MockDeploymentRepository) ListByProjectID(projectID uuid.UUID) ([]*domain.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Deployment
	for _, d := range m.deployments {
		if d.ProjectID == projectID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockDeploymentRepository) ListByReleaseID(releaseID uuid.UUID) ([]*domain.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Deployment
	for _, d := range m.deployments {
		if d.ProductionReleaseID != nil && *d.ProductionReleaseID == releaseID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockDeploymentRepository) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deployments, id)
	return nil
}

func (m *MockDeploymentRepository) DeleteBatch(batchID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.deployments {
		if d.BatchID == batchID {
			delete(m.deployments, id)
		}
	}
	return nil
}
