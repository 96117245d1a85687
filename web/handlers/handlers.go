// Package handlers implements the JSON HTTP handlers of the Flightdeck API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/deploy"
	"github.com/flightdeck-cd/flightdeck/domain"
	"github.com/flightdeck-cd/flightdeck/github"
	"github.com/flightdeck-cd/flightdeck/project"
	"github.com/flightdeck-cd/flightdeck/release"
	"github.com/flightdeck-cd/flightdeck/repository"
	"github.com/flightdeck-cd/flightdeck/transfer"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Auth problems ask
// the user to reconfigure the token; API errors surface GitHub's message
// verbatim; validation errors are inline and recoverable.
func respondError(w http.ResponseWriter, err error) {
	var authErr *github.AuthError
	var apiErr *github.APIError
	var netErr *github.NetworkError
	var valErr *transfer.ValidationError

	switch {
	case errors.As(err, &authErr):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "GitHub token missing or invalid; please reconfigure the token"})
	case errors.As(err, &apiErr):
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: apiErr.Error()})
	case errors.As(err, &netErr):
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "GitHub is unreachable; please retry"})
	case errors.As(err, &valErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: valErr.Error()})
	case errors.Is(err, release.ErrStepOrder), errors.Is(err, release.ErrReleaseClosed):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, release.ErrDuplicateNumber):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, repository.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		slog.Error("Request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	return json.NewDecoder(r.Body).Decode(v)
}

// Projects

type projectPayload struct {
	Name                string              `json:"name"`
	IsProductionRelease bool                `json:"isProductionRelease"`
	Repositories        []domain.Repository `json:"repositories"`
	Pipelines           []domain.Pipeline   `json:"pipelines"`
}

func ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := app.GetProjectService().List()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func CreateProject(w http.ResponseWriter, r *http.Request) {
	var payload projectPayload
	if err := decodeBody(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	p := domain.NewProject(payload.Name)
	p.IsProductionRelease = payload.IsProductionRelease
	for _, repo := range payload.Repositories {
		if repo.ID == uuid.Nil {
			repo.ID = uuid.New()
		}
		p.Repositories = append(p.Repositories, repo)
	}
	for _, pipeline := range payload.Pipelines {
		if pipeline.ID == uuid.Nil {
			pipeline.ID = uuid.New()
		}
		p.Pipelines = append(p.Pipelines, pipeline)
	}

	created, err := app.GetProjectService().Create(p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}
	p, err := app.GetProjectService().Get(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}

	existing, err := app.GetProjectService().Get(id)
	if err != nil {
		respondError(w, err)
		return
	}

	var payload projectPayload
	if err := decodeBody(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	existing.Name = payload.Name
	existing.IsProductionRelease = payload.IsProductionRelease
	existing.Repositories = payload.Repositories
	existing.Pipelines = payload.Pipelines

	if err := app.GetProjectService().Update(existing); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}
	if err := app.GetProjectService().Delete(id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Workflow inputs

func GetPipelineInputs(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}
	pipelineID, err := urlUUID(r, "pipelineID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pipeline id"})
		return
	}

	p, err := app.GetProjectService().Get(projectID)
	if err != nil {
		respondError(w, err)
		return
	}
	pipeline := p.PipelineByID(pipelineID)
	if pipeline == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "pipeline not found"})
		return
	}
	repo := p.RepositoryByID(pipeline.RepositoryID)
	if repo == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "pipeline repository not found"})
		return
	}

	inputs, err := app.GetSchemaReader().GetWorkflowInputs(r.Context(), repo.Owner, repo.Repo, pipeline.WorkflowFile)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inputs)
}

// Deployments

type deployPayload struct {
	PipelineIDs         []uuid.UUID       `json:"pipelineIds"`
	BuildNumber         string            `json:"buildNumber"`
	Inputs              map[string]string `json:"inputs"`
	GlobalReleaseNumber string            `json:"globalReleaseNumber"`
	ProductionReleaseID *uuid.UUID        `json:"productionReleaseId"`
}

type deployResponse struct {
	BatchID     uuid.UUID             `json:"batchId"`
	Outcome     string                `json:"outcome"`
	Deployments []*domain.Deployment  `json:"deployments"`
	Failures    []domain.BatchFailure `json:"failures,omitempty"`
}

// Deploy triggers one pipeline or a batch. The aggregate distinguishes
// all_succeeded / partial / all_failed with per-pipeline failure reasons.
func Deploy(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}

	var payload deployPayload
	if err := decodeBody(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if payload.BuildNumber == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "buildNumber is required"})
		return
	}

	p, err := app.GetProjectService().Get(projectID)
	if err != nil {
		respondError(w, err)
		return
	}

	var pipelines []domain.Pipeline
	if len(payload.PipelineIDs) == 0 {
		pipelines = p.Pipelines
	} else {
		for _, id := range payload.PipelineIDs {
			if pipeline := p.PipelineByID(id); pipeline != nil {
				pipelines = append(pipelines, *pipeline)
			}
		}
	}
	if len(pipelines) == 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "no matching pipelines to deploy"})
		return
	}

	result := app.GetTracker().TriggerBatch(r.Context(), p, pipelines, deploy.TriggerOptions{
		BuildNumber:         payload.BuildNumber,
		Inputs:              payload.Inputs,
		GlobalReleaseNumber: payload.GlobalReleaseNumber,
		ProductionReleaseID: payload.ProductionReleaseID,
	})

	if len(result.Deployments) > 0 {
		// Background status polling is bound to the server lifetime, not
		// this request
		app.GetPollerManager().Ensure(context.Background(), projectID)
	}

	status := http.StatusCreated
	if result.Outcome() == domain.BatchOutcomeAllFailed {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, deployResponse{
		BatchID:     result.BatchID,
		Outcome:     result.Outcome().String(),
		Deployments: result.Deployments,
		Failures:    result.Failures,
	})
}

func ListDeployments(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}
	deployments, err := app.GetDeploymentRepository().ListByProjectID(projectID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Deployments []*domain.Deployment        `json:"deployments"`
		Batches     []domain.BatchStatusSummary `json:"batches"`
	}{
		Deployments: deployments,
		Batches:     domain.SummarizeBatches(deployments),
	})
}

func DeleteDeployment(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "deploymentID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid deployment id"})
		return
	}
	if err := app.GetTracker().Delete(id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func DeleteDeploymentBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := urlUUID(r, "batchID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid batch id"})
		return
	}
	if err := app.GetTracker().DeleteBatch(batchID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Releases

type createReleasePayload struct {
	ReleaseNumber string `json:"releaseNumber"`
}

func ListReleases(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}
	releases, err := app.GetReleaseService().ListByProject(projectID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, releases)
}

func CreateRelease(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}

	var payload createReleasePayload
	if err := decodeBody(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if payload.ReleaseNumber == "" {
		if payload.ReleaseNumber, err = app.GetReleaseService().SuggestNumber(projectID); err != nil {
			respondError(w, err)
			return
		}
	}

	created, err := app.GetReleaseService().Create(projectID, payload.ReleaseNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func GetRelease(w http.ResponseWriter, r *http.Request) {
	releaseID, err := urlUUID(r, "releaseID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid release id"})
		return
	}

	rel, err := app.GetReleaseService().Get(releaseID)
	if err != nil {
		respondError(w, err)
		return
	}
	deployments, err := app.GetDeploymentRepository().ListByReleaseID(releaseID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Release *domain.ProductionRelease `json:"release"`
		Steps   []release.StepView        `json:"steps"`
	}{
		Release: rel,
		Steps:   release.DeriveStepViews(rel, deployments),
	})
}

type stepPayload struct {
	Email          *domain.EmailRecord    `json:"email"`
	SignOff        *domain.SignOffRecord  `json:"signOff"`
	Compliance     *domain.ComplianceFile `json:"compliance"`
	ManualOverride bool                   `json:"manualOverride"`
	Owner          string                 `json:"owner"`
	Repo           string                 `json:"repo"`
	TagName        string                 `json:"tagName"`
	Name           string                 `json:"name"`
	Body           string                 `json:"body"`
	Target         string                 `json:"target"`
}

func stepParams(r *http.Request) (uuid.UUID, domain.StepID, error) {
	releaseID, err := urlUUID(r, "releaseID")
	if err != nil {
		return uuid.Nil, 0, err
	}
	var stepID int
	if _, err := fmt.Sscanf(chi.URLParam(r, "stepID"), "%d", &stepID); err != nil {
		return uuid.Nil, 0, err
	}
	return releaseID, domain.StepID(stepID), nil
}

func CompleteStep(w http.ResponseWriter, r *http.Request) {
	releaseID, stepID, err := stepParams(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid release or step id"})
		return
	}

	var payload stepPayload
	if err := decodeBody(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	updated, err := app.GetReleaseService().CompleteStep(r.Context(), releaseID, stepID, release.StepInput{
		Email:          payload.Email,
		SignOff:        payload.SignOff,
		Compliance:     payload.Compliance,
		ManualOverride: payload.ManualOverride,
		Owner:          payload.Owner,
		Repo:           payload.Repo,
		TagName:        payload.TagName,
		Name:           payload.Name,
		Body:           payload.Body,
		Target:         payload.Target,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func SkipStep(w http.ResponseWriter, r *http.Request) {
	releaseID, stepID, err := stepParams(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid release or step id"})
		return
	}
	updated, err := app.GetReleaseService().SkipStep(releaseID, stepID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func ResetStep(w http.ResponseWriter, r *http.Request) {
	releaseID, stepID, err := stepParams(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid release or step id"})
		return
	}
	updated, err := app.GetReleaseService().ResetStep(releaseID, stepID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func CancelRelease(w http.ResponseWriter, r *http.Request) {
	releaseID, err := urlUUID(r, "releaseID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid release id"})
		return
	}
	updated, err := app.GetReleaseService().Cancel(releaseID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Export / import

func ExportProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}
	exportType := r.URL.Query().Get("mode")
	if exportType == "" {
		exportType = transfer.ExportTypeConfig
	}

	doc, err := app.GetTransferService().ExportProject(projectID, exportType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func ImportProject(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}
	created, err := app.GetTransferService().ImportProject(data)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Token

type tokenPayload struct {
	Token string `json:"token"`
}

func SetToken(w http.ResponseWriter, r *http.Request) {
	var payload tokenPayload
	if err := decodeBody(r, &payload); err != nil || payload.Token == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "token is required"})
		return
	}
	if err := app.GetTokenService().Set(payload.Token); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func VerifyToken(w http.ResponseWriter, r *http.Request) {
	user, err := app.GetGateway().VerifyToken(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := app.GetTokenService().Clear(); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
