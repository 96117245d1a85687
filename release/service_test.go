package release

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-cd/flightdeck/domain"
)

func setupService() (*Service, *MockReleaseRepository, *MockDeploymentLister, *MockSettingsRepository, *MockReleaseCreator) {
	releases := NewMockReleaseRepository()
	deployments := &MockDeploymentLister{}
	settings := NewMockSettingsRepository()
	gateway := &MockReleaseCreator{}
	service := NewService(releases, deployments, settings, gateway)
	return service, releases, deployments, settings, gateway
}

func addSuccessfulDeployment(deployments *MockDeploymentLister, releaseID uuid.UUID, environment string) {
	id := releaseID
	deployments.deployments = append(deployments.deployments, &domain.Deployment{
		ID:                  uuid.New(),
		Environment:         environment,
		Status:              domain.DeploymentStatusSuccess,
		ProductionReleaseID: &id,
	})
}

func emailInput() StepInput {
	return StepInput{Email: &domain.EmailRecord{Recipients: []string{"qa@acme.test"}}}
}

func signOffInput(name string) StepInput {
	return StepInput{SignOff: &domain.SignOffRecord{Name: name}}
}

func TestService_Create(t *testing.T) {
	service, _, _, _, _ := setupService()
	projectID := uuid.New()

	release, err := service.Create(projectID, "2026.08")

	require.NoError(t, err)
	assert.Equal(t, domain.ReleaseStatusDraft, release.Status)
	require.Len(t, release.Steps, 8)
	for i, step := range release.Steps {
		assert.Equal(t, domain.StepID(i+1), step.ID)
		assert.Equal(t, domain.StepStatusPending, step.Status)
	}
}

func TestService_Create_DuplicateNumber(t *testing.T) {
	service, _, _, _, _ := setupService()
	projectID := uuid.New()

	_, err := service.Create(projectID, "2026.08")
	require.NoError(t, err)

	_, err = service.Create(projectID, "2026.08")
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	// The same number is fine in another project
	_, err = service.Create(uuid.New(), "2026.08")
	assert.NoError(t, err)
}

func TestService_Create_MigratesLegacyFlags(t *testing.T) {
	service, _, _, settings, _ := setupService()
	projectID := uuid.New()

	key1 := fmt.Sprintf("legacy_step:%s:1", projectID)
	key2 := fmt.Sprintf("legacy_step:%s:2", projectID)
	require.NoError(t, settings.Set(key1, "true"))
	require.NoError(t, settings.Set(key2, "false"))

	release, err := service.Create(projectID, "2026.08")

	require.NoError(t, err)
	assert.Equal(t, domain.StepStatusCompleted, release.Step(domain.StepDeployStaging).Status)
	assert.True(t, release.Step(domain.StepDeployStaging).Manual)
	assert.Equal(t, domain.StepStatusPending, release.Step(domain.StepNotifyQAStaging).Status)
	assert.Equal(t, domain.ReleaseStatusInProgress, release.Status)

	// Flags are consumed exactly once
	_, err = settings.Get(key1)
	assert.Error(t, err)
	_, err = settings.Get(key2)
	assert.Error(t, err)
}

func TestService_CompleteStep_FullChecklist(t *testing.T) {
	service, _, deployments, _, gateway := setupService()
	projectID := uuid.New()

	release, err := service.Create(projectID, "2026.08")
	require.NoError(t, err)

	addSuccessfulDeployment(deployments, release.ID, "staging")
	addSuccessfulDeployment(deployments, release.ID, "production")

	ctx := context.Background()
	steps := []struct {
		id    domain.StepID
		input StepInput
	}{
		{domain.StepDeployStaging, StepInput{}},
		{domain.StepNotifyQAStaging, emailInput()},
		{domain.StepQASignOff, signOffInput("Dana QA")},
		{domain.StepNotifyStartProduction, emailInput()},
		{domain.StepPOSignOff, signOffInput("Pat PO")},
		{domain.StepDeployProduction, StepInput{}},
		{domain.StepNotifyQAProductionDone, emailInput()},
		{domain.StepCreateRelease, StepInput{Owner: "acme", Repo: "shop"}},
	}

	var updated *domain.ProductionRelease
	for _, s := range steps {
		updated, err = service.CompleteStep(ctx, release.ID, s.id, s.input)
		require.NoError(t, err, "step %d", int(s.id))
	}

	assert.Equal(t, domain.ReleaseStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	for _, step := range updated.Steps {
		assert.Equal(t, domain.StepStatusCompleted, step.Status)
		assert.NotNil(t, step.CompletedAt)
	}

	// Step 8 published exactly one GitHub release with a slug-derived tag
	require.Len(t, gateway.Created, 1)
	assert.Equal(t, "v2026-08", gateway.Created[0].TagName)
}

func TestService_CompleteStep_OutOfOrderRejected(t *testing.T) {
	service, releases, _, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)

	// Step 6 while steps 1-5 are pending
	_, err = service.CompleteStep(context.Background(), release.ID, domain.StepDeployProduction, StepInput{ManualOverride: true})

	assert.ErrorIs(t, err, ErrStepOrder)

	// No state change was persisted
	stored, err := releases.FindByID(release.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepStatusPending, stored.Step(domain.StepDeployProduction).Status)
	assert.Equal(t, domain.ReleaseStatusDraft, stored.Status)
}

func TestService_CompleteStep_SkippedStepUnblocksSuccessor(t *testing.T) {
	service, _, _, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)

	_, err = service.CompleteStep(context.Background(), release.ID, domain.StepDeployStaging, StepInput{ManualOverride: true})
	require.NoError(t, err)

	_, err = service.SkipStep(release.ID, domain.StepNotifyQAStaging)
	require.NoError(t, err)

	// A skipped step counts as resolved for ordering
	updated, err := service.CompleteStep(context.Background(), release.ID, domain.StepQASignOff, signOffInput("Dana QA"))
	require.NoError(t, err)
	assert.Equal(t, domain.StepStatusCompleted, updated.Step(domain.StepQASignOff).Status)
}

func TestService_CompleteStep_EmailStepRequiresEmail(t *testing.T) {
	service, _, _, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)

	_, err = service.CompleteStep(context.Background(), release.ID, domain.StepDeployStaging, StepInput{ManualOverride: true})
	require.NoError(t, err)

	_, err = service.CompleteStep(context.Background(), release.ID, domain.StepNotifyQAStaging, StepInput{})

	assert.Error(t, err)
}

func TestService_CompleteStep_DeployStepChecksTrackerData(t *testing.T) {
	service, _, deployments, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)

	// No successful staging deployment for this release yet
	_, err = service.CompleteStep(context.Background(), release.ID, domain.StepDeployStaging, StepInput{})
	assert.Error(t, err)

	addSuccessfulDeployment(deployments, release.ID, "staging")

	updated, err := service.CompleteStep(context.Background(), release.ID, domain.StepDeployStaging, StepInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepStatusCompleted, updated.Step(domain.StepDeployStaging).Status)
	assert.False(t, updated.Step(domain.StepDeployStaging).Manual)
}

func TestService_SkipStep_OnlyEmailSteps(t *testing.T) {
	service, _, _, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)

	_, err = service.SkipStep(release.ID, domain.StepQASignOff)
	assert.Error(t, err)

	_, err = service.SkipStep(release.ID, domain.StepDeployStaging)
	assert.Error(t, err)
}

func TestService_ResetStep_PayloadIsolation(t *testing.T) {
	service, _, deployments, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)
	addSuccessfulDeployment(deployments, release.ID, "staging")

	ctx := context.Background()
	_, err = service.CompleteStep(ctx, release.ID, domain.StepDeployStaging, StepInput{})
	require.NoError(t, err)
	_, err = service.CompleteStep(ctx, release.ID, domain.StepNotifyQAStaging, emailInput())
	require.NoError(t, err)
	_, err = service.CompleteStep(ctx, release.ID, domain.StepQASignOff, signOffInput("Dana QA"))
	require.NoError(t, err)

	updated, err := service.ResetStep(release.ID, domain.StepNotifyQAStaging)
	require.NoError(t, err)

	// Only step 2's payload is gone; the QA sign-off from step 3 survives
	assert.Equal(t, domain.StepStatusPending, updated.Step(domain.StepNotifyQAStaging).Status)
	assert.NotContains(t, updated.Emails, domain.StepNotifyQAStaging)
	assert.NotNil(t, updated.QASignOff)
	assert.Equal(t, domain.StepStatusCompleted, updated.Step(domain.StepQASignOff).Status)
}

func TestService_ResetStep_ReopensCompletedRelease(t *testing.T) {
	service, _, deployments, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)
	addSuccessfulDeployment(deployments, release.ID, "staging")
	addSuccessfulDeployment(deployments, release.ID, "production")

	ctx := context.Background()
	inputs := map[domain.StepID]StepInput{
		domain.StepDeployStaging:          {},
		domain.StepNotifyQAStaging:        emailInput(),
		domain.StepQASignOff:              signOffInput("Dana QA"),
		domain.StepNotifyStartProduction:  emailInput(),
		domain.StepPOSignOff:              signOffInput("Pat PO"),
		domain.StepDeployProduction:       {},
		domain.StepNotifyQAProductionDone: emailInput(),
		domain.StepCreateRelease:          {ManualOverride: true},
	}
	for id := domain.StepDeployStaging; id <= domain.StepCreateRelease; id++ {
		_, err = service.CompleteStep(ctx, release.ID, id, inputs[id])
		require.NoError(t, err)
	}

	reopened, err := service.ResetStep(release.ID, domain.StepCreateRelease)
	require.NoError(t, err)

	assert.Equal(t, domain.ReleaseStatusInProgress, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
}

func TestService_Cancel(t *testing.T) {
	service, _, _, _, _ := setupService()

	release, err := service.Create(uuid.New(), "2026.08")
	require.NoError(t, err)

	cancelled, err := service.Cancel(release.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReleaseStatusCancelled, cancelled.Status)

	// Cancelled releases reject further mutation
	_, err = service.CompleteStep(context.Background(), release.ID, domain.StepDeployStaging, StepInput{ManualOverride: true})
	assert.ErrorIs(t, err, ErrReleaseClosed)

	_, err = service.ResetStep(release.ID, domain.StepDeployStaging)
	assert.ErrorIs(t, err, ErrReleaseClosed)
}

func TestService_SuggestNumber(t *testing.T) {
	service, _, _, _, _ := setupService()
	projectID := uuid.New()

	service.now = func() time.Time { return time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC) }

	number, err := service.SuggestNumber(projectID)
	require.NoError(t, err)
	assert.Equal(t, "2026.08.1", number)

	_, err = service.Create(projectID, number)
	require.NoError(t, err)

	// The next suggestion avoids the taken number
	next, err := service.SuggestNumber(projectID)
	require.NoError(t, err)
	assert.Equal(t, "2026.08.2", next)
}
