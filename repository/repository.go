package repository

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flightdeck-cd/flightdeck/db"
	"github.com/flightdeck-cd/flightdeck/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type ProjectRepository interface {
	FindByID(id uuid.UUID) (*domain.Project, error)
	FindByName(name string) (*domain.Project, error)
	Create(project *domain.Project) (*domain.Project, error)
	Update(project *domain.Project) error
	List() ([]*domain.Project, error)
	Delete(id uuid.UUID) error
}

type projectRepository struct {
	db     *gorm.DB
	mapper *ProjectMapper
}

func NewProjectRepository(database *gorm.DB) ProjectRepository {
	return &projectRepository{db: database, mapper: &ProjectMapper{}}
}

func (r *projectRepository) List() ([]*domain.Project, error) {
	var models []db.ProjectModel
	if err := r.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}

	projects := make([]*domain.Project, len(models))
	for i, model := range models {
		projects[i] = r.mapper.ToDomain(&model)
	}
	return projects, nil
}

func (r *projectRepository) FindByID(id uuid.UUID) (*domain.Project, error) {
	var m db.ProjectModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *projectRepository) FindByName(name string) (*domain.Project, error) {
	var m db.ProjectModel
	if err := r.db.Where("name = ?", name).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *projectRepository) Create(project *domain.Project) (*domain.Project, error) {
	m := r.mapper.ToModel(project)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_project",
			"project_id", project.ID,
			"project_name", project.Name,
			"error", err)
		return nil, err
	}
	return r.mapper.ToDomain(m), nil
}

func (r *projectRepository) Update(project *domain.Project) error {
	m := r.mapper.ToModel(project)

	// Select all columns except created_at so clearing a field (empty JSON
	// array) still writes through
	return r.db.Model(&db.ProjectModel{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("created_at").
		Updates(m).
		Error
}

func (r *projectRepository) Delete(id uuid.UUID) error {
	err := r.db.Delete(&db.ProjectModel{}, "id = ?", id).Error
	if err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "delete_project",
			"project_id", id,
			"error", err)
	}
	return err
}

type DeploymentRepository interface {
	FindByID(id uuid.UUID) (*domain.Deployment, error)
	Create(deployment *domain.Deployment) error
	Update(deployment *domain.Deployment) error
	ListByProjectID(projectID uuid.UUID) ([]*domain.Deployment, error)
	ListByReleaseID(releaseID uuid.UUID) ([]*domain.Deployment, error)
	Delete(id uuid.UUID) error
	DeleteBatch(batchID uuid.UUID) error
}

type deploymentRepository struct {
	db     *gorm.DB
	mapper *DeploymentMapper
}

func NewDeploymentRepository(database *gorm.DB) DeploymentRepository {
	return &deploymentRepository{db: database, mapper: &DeploymentMapper{}}
}

func (r *deploymentRepository) FindByID(id uuid.UUID) (*domain.Deployment, error) {
	var m db.DeploymentModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *deploymentRepository) Create(deployment *domain.Deployment) error {
	m := r.mapper.ToModel(deployment)
	if err := r.db.Create(m).Error; err != nil {
		return err
	}
	*deployment = *r.mapper.ToDomain(m)
	return nil
}

// Update writes the full record. Polling always starts from a fresh read, so
// a full-record write is idempotent last-writer-wins per deployment id.
func (r *deploymentRepository) Update(deployment *domain.Deployment) error {
	m := r.mapper.ToModel(deployment)
	if err := r.db.Save(m).Error; err != nil {
		return err
	}
	*deployment = *r.mapper.ToDomain(m)
	return nil
}

func (r *deploymentRepository) ListByProjectID(projectID uuid.UUID) ([]*domain.Deployment, error) {
	var models []db.DeploymentModel
	if err := r.db.Where("project_id = ?", projectID).Order("started_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	deployments := make([]*domain.Deployment, len(models))
	for i, m := range models {
		deployments[i] = r.mapper.ToDomain(&m)
	}
	return deployments, nil
}

func (r *deploymentRepository) ListByReleaseID(releaseID uuid.UUID) ([]*domain.Deployment, error) {
	var models []db.DeploymentModel
	if err := r.db.Where("production_release_id = ?", releaseID).Order("started_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	deployments := make([]*domain.Deployment, len(models))
	for i, m := range models {
		deployments[i] = r.mapper.ToDomain(&m)
	}
	return deployments, nil
}

func (r *deploymentRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&db.DeploymentModel{}, "id = ?", id).Error
}

func (r *deploymentRepository) DeleteBatch(batchID uuid.UUID) error {
	return r.db.Delete(&db.DeploymentModel{}, "batch_id = ?", batchID).Error
}

type ReleaseRepository interface {
	FindByID(id uuid.UUID) (*domain.ProductionRelease, error)
	FindByNumber(projectID uuid.UUID, releaseNumber string) (*domain.ProductionRelease, error)
	Create(release *domain.ProductionRelease) error
	Update(release *domain.ProductionRelease) error
	ListByProjectID(projectID uuid.UUID) ([]*domain.ProductionRelease, error)
	Delete(id uuid.UUID) error
}

type releaseRepository struct {
	db     *gorm.DB
	mapper *ReleaseMapper
}

func NewReleaseRepository(database *gorm.DB) ReleaseRepository {
	return &releaseRepository{db: database, mapper: &ReleaseMapper{}}
}

func (r *releaseRepository) FindByID(id uuid.UUID) (*domain.ProductionRelease, error) {
	var m db.ProductionReleaseModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *releaseRepository) FindByNumber(projectID uuid.UUID, releaseNumber string) (*domain.ProductionRelease, error) {
	var m db.ProductionReleaseModel
	err := r.db.Where("project_id = ? AND release_number = ?", projectID, releaseNumber).First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *releaseRepository) Create(release *domain.ProductionRelease) error {
	m := r.mapper.ToModel(release)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_release",
			"release_id", release.ID,
			"release_number", release.ReleaseNumber,
			"error", err)
		return err
	}
	*release = *r.mapper.ToDomain(m)
	return nil
}

// Update writes the whole release row in one statement: step status, payload
// and release status land together or not at all.
func (r *releaseRepository) Update(release *domain.ProductionRelease) error {
	m := r.mapper.ToModel(release)
	return r.db.Model(&db.ProductionReleaseModel{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("created_at").
		Updates(m).
		Error
}

func (r *releaseRepository) ListByProjectID(projectID uuid.UUID) ([]*domain.ProductionRelease, error) {
	var models []db.ProductionReleaseModel
	if err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	releases := make([]*domain.ProductionRelease, len(models))
	for i, m := range models {
		releases[i] = r.mapper.ToDomain(&m)
	}
	return releases, nil
}

func (r *releaseRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&db.ProductionReleaseModel{}, "id = ?", id).Error
}

// TxSet bundles the repositories scoped to one transaction.
type TxSet struct {
	Projects    ProjectRepository
	Deployments DeploymentRepository
	Releases    ReleaseRepository
}

// TxRunner runs multi-record writes atomically. Everything written through
// the TxSet lands together or not at all.
type TxRunner interface {
	InTransaction(fn func(tx TxSet) error) error
}

type txRunner struct {
	db *gorm.DB
}

func NewTxRunner(database *gorm.DB) TxRunner {
	return &txRunner{db: database}
}

func (r *txRunner) InTransaction(fn func(tx TxSet) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(TxSet{
			Projects:    NewProjectRepository(tx),
			Deployments: NewDeploymentRepository(tx),
			Releases:    NewReleaseRepository(tx),
		})
	})
}

// SettingsRepository is the flat key-value tier.
type SettingsRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(database *gorm.DB) SettingsRepository {
	return &settingsRepository{db: database}
}

func (r *settingsRepository) Get(key string) (string, error) {
	var m db.SettingModel
	if err := r.db.First(&m, "key = ?", key).Error; err != nil {
		return "", translateError(err)
	}
	return m.Value, nil
}

func (r *settingsRepository) Set(key, value string) error {
	m := db.SettingModel{Key: key, Value: value}
	return r.db.Save(&m).Error
}

func (r *settingsRepository) Delete(key string) error {
	return r.db.Delete(&db.SettingModel{}, "key = ?", key).Error
}
