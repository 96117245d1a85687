// Package release implements the eight-step manual production-release
// process: staging deploy, QA sign-off, compliance hand-off, PO approval,
// production deploy, verification and GitHub release.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/github"
	"github.com/flightdeck-cd/flightdeck/repository"
)

var (
	// ErrStepOrder is returned when a step is mutated out of order.
	ErrStepOrder = errors.New("release: step cannot execute before prior steps complete")
	// ErrReleaseClosed is returned when mutating a completed or cancelled
	// release.
	ErrReleaseClosed = errors.New("release: release is completed or cancelled")
	// ErrDuplicateNumber is returned when the release number is taken
	// within the project.
	ErrDuplicateNumber = errors.New("release: release number already exists for this project")
)

// ReleaseCreator is the gateway capability the create-release step needs.
type ReleaseCreator interface {
	CreateRelease(ctx context.Context, owner, repo string, release github.NewRelease) (*github.Release, error)
}

// Service owns production releases and their step state machine.
type Service struct {
	releases    repository.ReleaseRepository
	deployments repository.DeploymentRepository
	settings    repository.SettingsRepository
	gateway     ReleaseCreator

	now func() time.Time
}

func NewService(
	releases repository.ReleaseRepository,
	deployments repository.DeploymentRepository,
	settings repository.SettingsRepository,
	gateway ReleaseCreator,
) *Service {
	return &Service{
		releases:    releases,
		deployments: deployments,
		settings:    settings,
		gateway:     gateway,
		now:         time.Now,
	}
}

// Create starts a draft release. Release numbers are unique per project.
// Legacy flat step flags for the project, if any, are read once to seed the
// step records and then removed; the release record is the single source of
// truth from here on.
func (s *Service) Create(projectID uuid.UUID, releaseNumber string) (*domain.ProductionRelease, error) {
	if releaseNumber == "" {
		return nil, fmt.Errorf("release: release number is required")
	}

	if _, err := s.releases.FindByNumber(projectID, releaseNumber); err == nil {
		return nil, ErrDuplicateNumber
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	release := domain.NewProductionRelease(projectID, releaseNumber)
	release.CreatedAt = s.now()
	s.migrateLegacyFlags(release)

	if err := s.releases.Create(release); err != nil {
		return nil, err
	}
	return release, nil
}

// migrateLegacyFlags seeds step state from the pre-release-scoped flat flags
// and deletes them, collapsing the two backing stores into one.
func (s *Service) migrateLegacyFlags(release *domain.ProductionRelease) {
	for id := domain.StepDeployStaging; id <= domain.StepCreateRelease; id++ {
		key := legacyStepKey(release.ProjectID, id)
		value, err := s.settings.Get(key)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.Warn("Failed to read legacy step flag", "key", key, "error", err)
			continue
		}
		if value == "true" {
			step := release.Step(id)
			completedAt := s.now()
			step.Status = domain.StepStatusCompleted
			step.CompletedAt = &completedAt
			step.Manual = true
		}
		if err := s.settings.Delete(key); err != nil {
			slog.Warn("Failed to remove legacy step flag", "key", key, "error", err)
		}
	}
	if release.AllStepsCompleted() {
		// Should not happen with real legacy data, but keep the invariant
		completedAt := s.now()
		release.Status = domain.ReleaseStatusCompleted
		release.CompletedAt = &completedAt
	} else {
		for i := range release.Steps {
			if release.Steps[i].Status == domain.StepStatusCompleted {
				release.Status = domain.ReleaseStatusInProgress
				break
			}
		}
	}
}

func legacyStepKey(projectID uuid.UUID, step domain.StepID) string {
	return fmt.Sprintf("legacy_step:%s:%d", projectID, int(step))
}

func (s *Service) Get(id uuid.UUID) (*domain.ProductionRelease, error) {
	return s.releases.FindByID(id)
}

func (s *Service) ListByProject(projectID uuid.UUID) ([]*domain.ProductionRelease, error) {
	return s.releases.ListByProjectID(projectID)
}

// SuggestNumber proposes the next YYYY.MM.sequence number for the project.
func (s *Service) SuggestNumber(projectID uuid.UUID) (string, error) {
	releases, err := s.releases.ListByProjectID(projectID)
	if err != nil {
		return "", err
	}
	numbers := make([]string, len(releases))
	for i, r := range releases {
		numbers[i] = r.ReleaseNumber
	}
	return domain.SuggestReleaseNumber(s.now(), numbers), nil
}

// StepInput carries the side-effecting payload for completing a step.
type StepInput struct {
	// Email marks the notification sent (steps 2, 4, 7).
	Email *domain.EmailRecord
	// SignOff records the approval (steps 3, 5).
	SignOff *domain.SignOffRecord
	// Compliance attaches the compliance document (with step 4).
	Compliance *domain.ComplianceFile
	// ManualOverride completes a deploy/release step (1, 6, 8) without
	// consulting tracker data or calling GitHub.
	ManualOverride bool

	// GitHub release coordinates for step 8.
	Owner   string
	Repo    string
	TagName string
	Name    string
	Body    string
	Target  string
}

// CompleteStep executes one step. The step status and payload land in one
// record update, together with the release's own completed status when the
// step set becomes fully completed; there is no intermediate persisted state.
func (s *Service) CompleteStep(ctx context.Context, releaseID uuid.UUID, stepID domain.StepID, input StepInput) (*domain.ProductionRelease, error) {
	release, err := s.releases.FindByID(releaseID)
	if err != nil {
		return nil, err
	}
	if release.Status == domain.ReleaseStatusCompleted || release.Status == domain.ReleaseStatusCancelled {
		return nil, ErrReleaseClosed
	}
	if !stepID.Valid() {
		return nil, fmt.Errorf("release: invalid step id %d", int(stepID))
	}
	if !release.CanExecute(stepID) {
		return nil, ErrStepOrder
	}

	step := release.Step(stepID)
	now := s.now()

	switch {
	case stepID.RequiresEmail():
		if input.Email == nil || len(input.Email.Recipients) == 0 {
			return nil, fmt.Errorf("release: step %q requires the notification email to be marked sent", stepID)
		}
		if input.Email.SentAt.IsZero() {
			input.Email.SentAt = now
		}
		release.Emails[stepID] = input.Email
		release.EmailRecipients = input.Email.Recipients
		if stepID == domain.StepNotifyStartProduction && input.Compliance != nil {
			if input.Compliance.UploadedAt.IsZero() {
				input.Compliance.UploadedAt = now
			}
			release.ComplianceFile = input.Compliance
		}

	case stepID.RequiresSignOff():
		if input.SignOff == nil || input.SignOff.Name == "" {
			return nil, fmt.Errorf("release: step %q requires a sign-off record", stepID)
		}
		if input.SignOff.SignedAt.IsZero() {
			input.SignOff.SignedAt = now
		}
		if stepID == domain.StepQASignOff {
			release.QASignOff = input.SignOff
		} else {
			release.POSignOff = input.SignOff
		}

	case stepID == domain.StepDeployStaging || stepID == domain.StepDeployProduction:
		if !input.ManualOverride {
			ok, err := s.deploymentSucceeded(release, stepID == domain.StepDeployProduction)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("release: no successful %s deployment for release %s",
					environmentLabel(stepID), release.ReleaseNumber)
			}
		}
		step.Manual = input.ManualOverride

	case stepID == domain.StepCreateRelease:
		if !input.ManualOverride {
			if input.Owner == "" || input.Repo == "" {
				return nil, fmt.Errorf("release: step %q requires repository coordinates", stepID)
			}
			tag := input.TagName
			if tag == "" {
				tag = "v" + slug.Make(release.ReleaseNumber)
			}
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("Release %s", release.ReleaseNumber)
			}
			if _, err := s.gateway.CreateRelease(ctx, input.Owner, input.Repo, github.NewRelease{
				TagName:         tag,
				Name:            name,
				Body:            input.Body,
				TargetCommitish: input.Target,
				Draft:           false,
				Prerelease:      false,
			}); err != nil {
				return nil, fmt.Errorf("creating github release: %w", err)
			}
		}
		step.Manual = input.ManualOverride
	}

	step.Status = domain.StepStatusCompleted
	step.CompletedAt = &now

	if release.AllStepsCompleted() {
		release.Status = domain.ReleaseStatusCompleted
		release.CompletedAt = &now
	} else if release.Status == domain.ReleaseStatusDraft {
		release.Status = domain.ReleaseStatusInProgress
	}

	if err := s.releases.Update(release); err != nil {
		return nil, err
	}

	slog.Info("Release step completed",
		"release_id", release.ID,
		"release_number", release.ReleaseNumber,
		"step", stepID.String(),
		"release_status", release.Status.String())
	return release, nil
}

// SkipStep marks a notification step skipped. Only notification steps may be
// skipped; approvals and deploys must happen or be explicitly overridden.
func (s *Service) SkipStep(releaseID uuid.UUID, stepID domain.StepID) (*domain.ProductionRelease, error) {
	if !stepID.RequiresEmail() {
		return nil, fmt.Errorf("release: step %q cannot be skipped", stepID)
	}

	release, err := s.releases.FindByID(releaseID)
	if err != nil {
		return nil, err
	}
	if release.Status == domain.ReleaseStatusCompleted || release.Status == domain.ReleaseStatusCancelled {
		return nil, ErrReleaseClosed
	}
	if !release.CanExecute(stepID) {
		return nil, ErrStepOrder
	}

	step := release.Step(stepID)
	step.Status = domain.StepStatusSkipped
	step.CompletedAt = nil
	delete(release.Emails, stepID)

	if release.Status == domain.ReleaseStatusDraft {
		release.Status = domain.ReleaseStatusInProgress
	}
	if err := s.releases.Update(release); err != nil {
		return nil, err
	}
	return release, nil
}

// ResetStep clears one step's status and only that step's payload.
func (s *Service) ResetStep(releaseID uuid.UUID, stepID domain.StepID) (*domain.ProductionRelease, error) {
	release, err := s.releases.FindByID(releaseID)
	if err != nil {
		return nil, err
	}
	if release.Status == domain.ReleaseStatusCancelled {
		return nil, ErrReleaseClosed
	}
	if !stepID.Valid() {
		return nil, fmt.Errorf("release: invalid step id %d", int(stepID))
	}

	step := release.Step(stepID)
	step.Status = domain.StepStatusPending
	step.CompletedAt = nil
	step.Manual = false

	switch {
	case stepID.RequiresEmail():
		delete(release.Emails, stepID)
		if stepID == domain.StepNotifyStartProduction {
			release.ComplianceFile = nil
		}
	case stepID == domain.StepQASignOff:
		release.QASignOff = nil
	case stepID == domain.StepPOSignOff:
		release.POSignOff = nil
	}

	// Completion is no longer true once a step reopens
	if release.Status == domain.ReleaseStatusCompleted {
		release.Status = domain.ReleaseStatusInProgress
		release.CompletedAt = nil
	}

	if err := s.releases.Update(release); err != nil {
		return nil, err
	}
	return release, nil
}

// Cancel abandons a release. Cancelled releases reject step mutations.
func (s *Service) Cancel(releaseID uuid.UUID) (*domain.ProductionRelease, error) {
	release, err := s.releases.FindByID(releaseID)
	if err != nil {
		return nil, err
	}
	if release.Status == domain.ReleaseStatusCompleted {
		return nil, ErrReleaseClosed
	}
	release.Status = domain.ReleaseStatusCancelled
	if err := s.releases.Update(release); err != nil {
		return nil, err
	}
	return release, nil
}

func (s *Service) deploymentSucceeded(release *domain.ProductionRelease, production bool) (bool, error) {
	deployments, err := s.deployments.ListByReleaseID(release.ID)
	if err != nil {
		return false, err
	}
	for _, d := range deployments {
		if d.Status != domain.DeploymentStatusSuccess {
			continue
		}
		if production && isProductionEnvironment(d.Environment) {
			return true, nil
		}
		if !production && isStagingEnvironment(d.Environment) {
			return true, nil
		}
	}
	return false, nil
}

func environmentLabel(stepID domain.StepID) string {
	if stepID == domain.StepDeployProduction {
		return "production"
	}
	return "staging"
}
