package routes

import (
	"fabtrack/api/rest/handlers"
	"fabtrack/core/docstore"
	"fabtrack/core/identity"
	"fabtrack/core/importer"
	"fabtrack/core/repository"
	"fabtrack/core/template"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, store docstore.Store, checklist *template.Checklist, idp identity.Provider) {
	projectRepo := repository.NewProjectRepository(store)
	jobRepo := repository.NewJobRepository(store)
	batchRepo := repository.NewBatchRepository(store)
	searchRepo := repository.NewSavedSearchRepository(store)

	projectHandler := handlers.NewProjectHandler(projectRepo, jobRepo, idp)
	jobHandler := handlers.NewJobHandler(jobRepo, projectRepo, checklist, idp)
	importHandler := handlers.NewImportHandler(importer.New(store, checklist), projectRepo, idp)
	batchHandler := handlers.NewBatchHandler(batchRepo)
	dashboardHandler := handlers.NewDashboardHandler(projectRepo, jobRepo)
	searchHandler := handlers.NewSavedSearchHandler(searchRepo, idp)

	api := r.PathPrefix("/v1").Subrouter()

	// Project endpoints
	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects/search", projectHandler.SearchProjects).Methods("POST")
	api.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/stats", projectHandler.GetProjectStats).Methods("GET")

	// Job endpoints
	api.HandleFunc("/projects/{id}/jobs", jobHandler.CreateJob).Methods("POST")
	api.HandleFunc("/projects/{id}/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.UpdateJob).Methods("PUT")
	api.HandleFunc("/jobs/{id}", jobHandler.DeleteJob).Methods("DELETE")
	api.HandleFunc("/jobs/{id}/subjobs/{subJob}/steps/{step}/toggle", jobHandler.ToggleSubJobStep).Methods("POST")
	api.HandleFunc("/jobs/{id}/steps/{step}/toggle", jobHandler.ToggleStep).Methods("POST")

	// Import endpoints
	api.HandleFunc("/projects/{id}/import", importHandler.ImportJobs).Methods("POST")
	api.HandleFunc("/import/sample", importHandler.SampleCSV).Methods("GET")

	// Batch endpoints
	api.HandleFunc("/projects/{id}/batches", batchHandler.CreateBatch).Methods("POST")
	api.HandleFunc("/projects/{id}/batches", batchHandler.ListBatches).Methods("GET")
	api.HandleFunc("/batches/{id}", batchHandler.UpdateBatch).Methods("PUT")
	api.HandleFunc("/batches/{id}", batchHandler.DeleteBatch).Methods("DELETE")

	// Saved search endpoints
	api.HandleFunc("/searches", searchHandler.CreateSavedSearch).Methods("POST")
	api.HandleFunc("/searches", searchHandler.ListSavedSearches).Methods("GET")
	api.HandleFunc("/searches/{id}", searchHandler.DeleteSavedSearch).Methods("DELETE")

	// Dashboard endpoints
	api.HandleFunc("/dashboard/stats", dashboardHandler.GetStats).Methods("GET")
}
