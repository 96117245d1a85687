package deploy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/config"
	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/repository"
)

// Poller refreshes one project's active deployments on an adaptive cadence:
// short intervals while the newest batch is fresh and status changes are
// likely, longer ones as the oldest active deployment ages, to ease API
// rate-limit pressure. It exits when nothing is left to poll.
type Poller struct {
	tracker     *Tracker
	projects    repository.ProjectRepository
	deployments repository.DeploymentRepository
	config      config.PollingConfig
	projectID   uuid.UUID

	now func() time.Time
}

func NewPoller(
	tracker *Tracker,
	projects repository.ProjectRepository,
	deployments repository.DeploymentRepository,
	cfg config.PollingConfig,
	projectID uuid.UUID,
) *Poller {
	return &Poller{
		tracker:     tracker,
		projects:    projects,
		deployments: deployments,
		config:      cfg,
		projectID:   projectID,
		now:         time.Now,
	}
}

// Run polls until the context is cancelled or no deployment in the project
// is refreshable. Each tick starts from a fresh read, so concurrent pollers
// over the same project cause redundant reads, not corruption.
func (p *Poller) Run(ctx context.Context) {
	slog.Debug("Deployment poller starting", "project_id", p.projectID)

	for {
		active, err := p.tick(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			slog.Debug("Project no longer exists; poller stopping", "project_id", p.projectID)
			return
		}
		if err != nil {
			slog.Error("Deployment poll tick failed",
				"project_id", p.projectID,
				"error", err)
		}
		if err == nil && len(active) == 0 {
			slog.Debug("No active deployments left; poller stopping", "project_id", p.projectID)
			return
		}

		interval := p.interval(active)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Debug("Deployment poller cancelled", "project_id", p.projectID)
			return
		case <-timer.C:
		}
	}
}

// tick refreshes once and returns the deployments still worth polling.
func (p *Poller) tick(ctx context.Context) ([]*domain.Deployment, error) {
	project, err := p.projects.FindByID(p.projectID)
	if err != nil {
		return nil, err
	}

	deployments, err := p.deployments.ListByProjectID(p.projectID)
	if err != nil {
		return nil, err
	}

	p.tracker.RefreshStatuses(ctx, project, deployments)

	var active []*domain.Deployment
	for _, d := range deployments {
		if d.Refreshable() {
			active = append(active, d)
		}
	}
	return active, nil
}

// interval picks the cadence from the age of the oldest active deployment.
func (p *Poller) interval(active []*domain.Deployment) time.Duration {
	if len(active) == 0 {
		return p.config.SlowInterval
	}

	oldest := active[0].StartedAt
	for _, d := range active[1:] {
		if d.StartedAt.Before(oldest) {
			oldest = d.StartedAt
		}
	}

	age := p.now().Sub(oldest)
	switch {
	case age < p.config.FastThreshold:
		return p.config.FastInterval
	case age < p.config.MediumThreshold:
		return p.config.MediumInterval
	default:
		return p.config.SlowInterval
	}
}

// Manager owns one poller per project scope, started on demand after a
// trigger and torn down when the poller runs out of active deployments.
// Duplicate pollers would be harmless; the manager just avoids the waste.
type Manager struct {
	tracker     *Tracker
	projects    repository.ProjectRepository
	deployments repository.DeploymentRepository
	config      config.PollingConfig

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(
	tracker *Tracker,
	projects repository.ProjectRepository,
	deployments repository.DeploymentRepository,
	cfg config.PollingConfig,
) *Manager {
	return &Manager{
		tracker:     tracker,
		projects:    projects,
		deployments: deployments,
		config:      cfg,
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// Ensure starts a poller for the project unless one is already running.
func (m *Manager) Ensure(ctx context.Context, projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.cancels[projectID]; running {
		return
	}

	pollerCtx, cancel := context.WithCancel(ctx)
	m.cancels[projectID] = cancel

	poller := NewPoller(m.tracker, m.projects, m.deployments, m.config, projectID)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.release(projectID)
		poller.Run(pollerCtx)
	}()
}

func (m *Manager) release(projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[projectID]; ok {
		cancel()
		delete(m.cancels, projectID)
	}
}

// Stop cancels every poller and waits for them to finish. In-flight GitHub
// calls complete; only future ticks are suppressed.
func (m *Manager) Stop() {
	m.mu.Lock()
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}
