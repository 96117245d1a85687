// Package routes provides HTTP route registration for the API server.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flightdeck-cd/flightdeck/web/handlers"
)

// RegisterProjectRoutes registers project CRUD, deployment and release routes.
func RegisterProjectRoutes(r chi.Router) {
	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", handlers.ListProjects)
		r.Post("/", handlers.CreateProject)
		r.Post("/import", handlers.ImportProject)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetProject)
			r.Put("/", handlers.UpdateProject)
			r.Delete("/", handlers.DeleteProject)
			r.Get("/export", handlers.ExportProject)

			r.Get("/pipelines/{pipelineID}/inputs", handlers.GetPipelineInputs)

			r.Post("/deploy", handlers.Deploy)
			r.Get("/deployments", handlers.ListDeployments)
			r.Delete("/deployments/{deploymentID}", handlers.DeleteDeployment)
			r.Delete("/deployments/batch/{batchID}", handlers.DeleteDeploymentBatch)

			r.Get("/releases", handlers.ListReleases)
			r.Post("/releases", handlers.CreateRelease)
		})
	})

	r.Route("/api/releases/{releaseID}", func(r chi.Router) {
		r.Get("/", handlers.GetRelease)
		r.Post("/cancel", handlers.CancelRelease)
		r.Post("/steps/{stepID}/complete", handlers.CompleteStep)
		r.Post("/steps/{stepID}/skip", handlers.SkipStep)
		r.Post("/steps/{stepID}/reset", handlers.ResetStep)
	})
}

// RegisterUtilityRoutes registers token management and health endpoints.
func RegisterUtilityRoutes(r chi.Router) {
	r.Route("/api/token", func(r chi.Router) {
		r.Put("/", handlers.SetToken)
		r.Delete("/", handlers.DeleteToken)
		r.Get("/verify", handlers.VerifyToken)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
