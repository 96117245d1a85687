// Package transfer implements JSON export and import of projects, including
// id regeneration and foreign-key remapping on import.
package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/domain"
)

// FormatVersion is the export document version.
const FormatVersion = 1

// Export modes.
const (
	ExportTypeConfig = "config"
	ExportTypeFull   = "full"
)

// ValidationError describes a malformed import payload. It is surfaced
// inline and never results in a partial write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("import validation failed: %s: %s", e.Field, e.Message)
}

// Document is the export/import wire format.
type Document struct {
	Version            int             `json:"version"`
	ExportType         string          `json:"exportType"`
	ExportedAt         time.Time       `json:"exportedAt"`
	Project            ProjectDoc      `json:"project"`
	Deployments        []DeploymentDoc `json:"deployments,omitempty"`
	ProductionReleases []ReleaseDoc    `json:"productionReleases,omitempty"`
}

type ProjectDoc struct {
	Name                string              `json:"name"`
	IsProductionRelease bool                `json:"isProductionRelease,omitempty"`
	Repositories        []domain.Repository `json:"repositories"`
	Pipelines           []domain.Pipeline   `json:"pipelines"`
}

type DeploymentDoc struct {
	ID                  uuid.UUID  `json:"id"`
	PipelineID          uuid.UUID  `json:"pipelineId"`
	RepositoryID        uuid.UUID  `json:"repositoryId"`
	BuildNumber         string     `json:"buildNumber"`
	Branch              string     `json:"branch"`
	Environment         string     `json:"environment,omitempty"`
	GlobalReleaseNumber string     `json:"globalReleaseNumber,omitempty"`
	BatchID             uuid.UUID  `json:"batchId"`
	ProductionReleaseID *uuid.UUID `json:"productionReleaseId,omitempty"`
	Status              string     `json:"status"`
	WorkflowRunID       *int64     `json:"workflowRunId,omitempty"`
	StartedAt           time.Time  `json:"startedAt"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

type ReleaseDoc struct {
	ID              uuid.UUID                             `json:"id"`
	ReleaseNumber   string                                `json:"releaseNumber"`
	Status          string                                `json:"status"`
	Steps           []domain.Step                         `json:"steps"`
	QASignOff       *domain.SignOffRecord                 `json:"qaSignOff,omitempty"`
	POSignOff       *domain.SignOffRecord                 `json:"poSignOff,omitempty"`
	ComplianceFile  *domain.ComplianceFile                `json:"complianceFile,omitempty"`
	EmailRecipients []string                              `json:"emailRecipients,omitempty"`
	Emails          map[domain.StepID]*domain.EmailRecord `json:"emails,omitempty"`
	CreatedAt       time.Time                             `json:"createdAt"`
	CompletedAt     *time.Time                            `json:"completedAt,omitempty"`
}

// Export renders a project into a document. Config mode carries only the
// configuration; full mode inlines the project's deployments and releases.
func Export(project *domain.Project, deployments []*domain.Deployment, releases []*domain.ProductionRelease, exportType string, now time.Time) (*Document, error) {
	if exportType != ExportTypeConfig && exportType != ExportTypeFull {
		return nil, fmt.Errorf("unknown export type: %q", exportType)
	}

	doc := &Document{
		Version:    FormatVersion,
		ExportType: exportType,
		ExportedAt: now.UTC(),
		Project: ProjectDoc{
			Name:                project.Name,
			IsProductionRelease: project.IsProductionRelease,
			Repositories:        append([]domain.Repository{}, project.Repositories...),
			Pipelines:           append([]domain.Pipeline{}, project.Pipelines...),
		},
	}

	if exportType == ExportTypeFull {
		for _, d := range deployments {
			doc.Deployments = append(doc.Deployments, DeploymentDoc{
				ID:                  d.ID,
				PipelineID:          d.PipelineID,
				RepositoryID:        d.RepositoryID,
				BuildNumber:         d.BuildNumber,
				Branch:              d.Branch,
				Environment:         d.Environment,
				GlobalReleaseNumber: d.GlobalReleaseNumber,
				BatchID:             d.BatchID,
				ProductionReleaseID: d.ProductionReleaseID,
				Status:              d.Status.String(),
				WorkflowRunID:       d.WorkflowRunID,
				StartedAt:           d.StartedAt,
				CompletedAt:         d.CompletedAt,
			})
		}
		for _, r := range releases {
			doc.ProductionReleases = append(doc.ProductionReleases, ReleaseDoc{
				ID:              r.ID,
				ReleaseNumber:   r.ReleaseNumber,
				Status:          r.Status.String(),
				Steps:           append([]domain.Step{}, r.Steps...),
				QASignOff:       r.QASignOff,
				POSignOff:       r.POSignOff,
				ComplianceFile:  r.ComplianceFile,
				EmailRecipients: r.EmailRecipients,
				Emails:          r.Emails,
				CreatedAt:       r.CreatedAt,
				CompletedAt:     r.CompletedAt,
			})
		}
	}

	return doc, nil
}

// Marshal renders a document as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Bundle is the validated, id-regenerated result of an import, ready to
// persist as a unit.
type Bundle struct {
	Project     *domain.Project
	Deployments []*domain.Deployment
	Releases    []*domain.ProductionRelease
}

// Import parses and validates a document and regenerates every id,
// remapping pipeline→repository and deployment→pipeline/repository/release
// references consistently. Nothing is persisted here; validation failure
// happens before any write.
func Import(data []byte) (*Bundle, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Field: "document", Message: "not valid JSON: " + err.Error()}
	}
	return ImportDocument(&doc)
}

// ImportDocument validates and rebuilds an already-parsed document.
func ImportDocument(doc *Document) (*Bundle, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	project := domain.NewProject(doc.Project.Name)
	project.IsProductionRelease = doc.Project.IsProductionRelease

	repoIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Project.Repositories))
	for _, repo := range doc.Project.Repositories {
		oldID := repo.ID
		repo.ID = uuid.New()
		repoIDs[oldID] = repo.ID
		project.Repositories = append(project.Repositories, repo)
	}

	pipelineIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Project.Pipelines))
	for _, pipeline := range doc.Project.Pipelines {
		oldID := pipeline.ID
		pipeline.ID = uuid.New()
		pipelineIDs[oldID] = pipeline.ID
		pipeline.RepositoryID = repoIDs[pipeline.RepositoryID]
		project.Pipelines = append(project.Pipelines, pipeline)
	}

	bundle := &Bundle{Project: project}

	releaseIDs := make(map[uuid.UUID]uuid.UUID, len(doc.ProductionReleases))
	for _, rd := range doc.ProductionReleases {
		release := domain.NewProductionRelease(project.ID, rd.ReleaseNumber)
		releaseIDs[rd.ID] = release.ID

		status, err := domain.ParseReleaseStatus(rd.Status)
		if err != nil {
			return nil, &ValidationError{Field: "productionReleases.status", Message: err.Error()}
		}
		release.Status = status
		if len(rd.Steps) == domain.StepCount {
			release.Steps = append([]domain.Step{}, rd.Steps...)
		}
		release.QASignOff = rd.QASignOff
		release.POSignOff = rd.POSignOff
		release.ComplianceFile = rd.ComplianceFile
		release.EmailRecipients = rd.EmailRecipients
		if rd.Emails != nil {
			release.Emails = rd.Emails
		}
		release.CreatedAt = rd.CreatedAt
		release.CompletedAt = rd.CompletedAt
		bundle.Releases = append(bundle.Releases, release)
	}

	batchIDs := make(map[uuid.UUID]uuid.UUID)
	for _, dd := range doc.Deployments {
		status, err := domain.ParseDeploymentStatus(dd.Status)
		if err != nil {
			return nil, &ValidationError{Field: "deployments.status", Message: err.Error()}
		}

		if _, ok := batchIDs[dd.BatchID]; !ok {
			batchIDs[dd.BatchID] = uuid.New()
		}

		deployment := &domain.Deployment{
			ID:                  uuid.New(),
			ProjectID:           project.ID,
			PipelineID:          pipelineIDs[dd.PipelineID],
			RepositoryID:        repoIDs[dd.RepositoryID],
			BuildNumber:         dd.BuildNumber,
			Branch:              dd.Branch,
			Environment:         dd.Environment,
			GlobalReleaseNumber: dd.GlobalReleaseNumber,
			BatchID:             batchIDs[dd.BatchID],
			Status:              status,
			WorkflowRunID:       dd.WorkflowRunID,
			StartedAt:           dd.StartedAt,
			CompletedAt:         dd.CompletedAt,
		}
		if dd.ProductionReleaseID != nil {
			if mapped, ok := releaseIDs[*dd.ProductionReleaseID]; ok {
				deployment.ProductionReleaseID = &mapped
			}
		}
		bundle.Deployments = append(bundle.Deployments, deployment)
	}

	return bundle, nil
}

func validate(doc *Document) error {
	if doc.Version <= 0 || doc.Version > FormatVersion {
		return &ValidationError{Field: "version", Message: fmt.Sprintf("unsupported version %d", doc.Version)}
	}
	if doc.ExportType != ExportTypeConfig && doc.ExportType != ExportTypeFull {
		return &ValidationError{Field: "exportType", Message: "must be \"config\" or \"full\""}
	}
	if doc.Project.Name == "" {
		return &ValidationError{Field: "project.name", Message: "is required"}
	}
	if doc.Project.Repositories == nil {
		return &ValidationError{Field: "project.repositories", Message: "is required"}
	}
	if doc.Project.Pipelines == nil {
		return &ValidationError{Field: "project.pipelines", Message: "is required"}
	}

	repoIDs := make(map[uuid.UUID]struct{}, len(doc.Project.Repositories))
	for i, repo := range doc.Project.Repositories {
		if repo.Owner == "" || repo.Repo == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("project.repositories[%d]", i),
				Message: "owner and repo are required",
			}
		}
		repoIDs[repo.ID] = struct{}{}
	}

	pipelineIDs := make(map[uuid.UUID]struct{}, len(doc.Project.Pipelines))
	for i, pipeline := range doc.Project.Pipelines {
		if pipeline.WorkflowFile == "" || pipeline.Branch == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("project.pipelines[%d]", i),
				Message: "workflowFile and branch are required",
			}
		}
		if _, ok := repoIDs[pipeline.RepositoryID]; !ok {
			return &ValidationError{
				Field:   fmt.Sprintf("project.pipelines[%d].repositoryId", i),
				Message: "does not reference an exported repository",
			}
		}
		pipelineIDs[pipeline.ID] = struct{}{}
	}

	if doc.ExportType == ExportTypeConfig && (len(doc.Deployments) > 0 || len(doc.ProductionReleases) > 0) {
		return &ValidationError{Field: "exportType", Message: "config export must not carry deployments or releases"}
	}

	releaseIDs := make(map[uuid.UUID]struct{}, len(doc.ProductionReleases))
	for i, release := range doc.ProductionReleases {
		if release.ReleaseNumber == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("productionReleases[%d].releaseNumber", i),
				Message: "is required",
			}
		}
		releaseIDs[release.ID] = struct{}{}
	}

	for i, deployment := range doc.Deployments {
		if _, ok := pipelineIDs[deployment.PipelineID]; !ok {
			return &ValidationError{
				Field:   fmt.Sprintf("deployments[%d].pipelineId", i),
				Message: "does not reference an exported pipeline",
			}
		}
		if _, ok := repoIDs[deployment.RepositoryID]; !ok {
			return &ValidationError{
				Field:   fmt.Sprintf("deployments[%d].repositoryId", i),
				Message: "does not reference an exported repository",
			}
		}
		if deployment.ProductionReleaseID != nil {
			if _, ok := releaseIDs[*deployment.ProductionReleaseID]; !ok {
				return &ValidationError{
					Field:   fmt.Sprintf("deployments[%d].productionReleaseId", i),
					Message: "does not reference an exported release",
				}
			}
		}
	}

	return nil
}
