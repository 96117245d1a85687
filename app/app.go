// Package app provides the main application context for Flightdeck,
// managing the database and services.
package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/flightdeck-cd/flightdeck/config"
	"github.com/flightdeck-cd/flightdeck/db"
	"github.com/flightdeck-cd/flightdeck/deploy"
	"github.com/flightdeck-cd/flightdeck/encryption"
	"github.com/flightdeck-cd/flightdeck/github"
	"github.com/flightdeck-cd/flightdeck/project"
	"github.com/flightdeck-cd/flightdeck/release"
	"github.com/flightdeck-cd/flightdeck/repository"
	"github.com/flightdeck-cd/flightdeck/token"
	"github.com/flightdeck-cd/flightdeck/transfer"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	database        *gorm.DB
	appConfig       *config.Config
	projectService  project.Manager
	tokenService    *token.Service
	gatewayClient   *github.Client
	schemaReader    *github.SchemaReader
	trackerService  *deploy.Tracker
	pollerManager   *deploy.Manager
	releaseService  *release.Service
	transferService *transfer.Service
	deploymentRepo  repository.DeploymentRepository
	releaseRepo     repository.ReleaseRepository
)

// InitializeWithConfig initializes the app with a pre-configured Config
func InitializeWithConfig(cfg *config.Config) error {
	var err error
	appConfig = cfg

	database, err = db.InitDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrateAll(database); err != nil {
		return err
	}

	if cfg.EncryptionKey == "" {
		return fmt.Errorf("FLIGHTDECK_ENCRYPTION_KEY is not set; generate one with 'flightdeck token keygen'")
	}
	encryptionSvc, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	projectRepo := repository.NewProjectRepository(database)
	deploymentRepo = repository.NewDeploymentRepository(database)
	releaseRepo = repository.NewReleaseRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	tokenService = token.NewService(settingsRepo, encryptionSvc)
	gatewayClient = github.NewClient(cfg.GitHubBaseURL, tokenService, github.WithTimeout(cfg.GitHubTimeout))
	schemaReader = github.NewSchemaReader(gatewayClient)

	correlator := github.NewCorrelator(gatewayClient, github.CorrelatorConfig(cfg.Correlator))

	projectService = project.NewService(projectRepo)
	trackerService = deploy.NewTracker(gatewayClient, correlator, deploymentRepo)
	pollerManager = deploy.NewManager(trackerService, projectRepo, deploymentRepo, cfg.Polling)
	releaseService = release.NewService(releaseRepo, deploymentRepo, settingsRepo, gatewayClient)
	transferService = transfer.NewService(projectRepo, deploymentRepo, releaseRepo, repository.NewTxRunner(database))

	return nil
}

func GetConfig() *config.Config                            { return appConfig }
func GetProjectService() project.Manager                   { return projectService }
func GetTokenService() *token.Service                      { return tokenService }
func GetGateway() *github.Client                           { return gatewayClient }
func GetSchemaReader() *github.SchemaReader                { return schemaReader }
func GetTracker() *deploy.Tracker                          { return trackerService }
func GetPollerManager() *deploy.Manager                    { return pollerManager }
func GetReleaseService() *release.Service                  { return releaseService }
func GetTransferService() *transfer.Service                { return transferService }
func GetDeploymentRepository() repository.DeploymentRepository { return deploymentRepo }
func GetReleaseRepository() repository.ReleaseRepository   { return releaseRepo }

// SetProjectServiceForTesting allows overriding the project service for testing purposes
func SetProjectServiceForTesting(service project.Manager) {
	projectService = service
}
