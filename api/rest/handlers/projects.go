package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/identity"
	"fabtrack/core/models"
	"fabtrack/core/progress"
	"fabtrack/core/repository"
	"fabtrack/core/search"

	"github.com/gorilla/mux"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
	jobRepo     *repository.JobRepository
	idp         identity.Provider
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	projectRepo *repository.ProjectRepository,
	jobRepo *repository.JobRepository,
	idp identity.Provider,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		jobRepo:     jobRepo,
		idp:         idp,
	}
}

// ProjectRequest represents the request to create or update a project
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// CreateProject handles POST /v1/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UserID:      h.idp.CurrentUser(r).ID,
	}

	if err := h.projectRepo.CreateProject(r.Context(), project); err != nil {
		http.Error(w, "Failed to create project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, h.projectView(project, nil, time.Now()))
}

// ListProjects handles GET /v1/projects. Filter and sort criteria are taken
// from query parameters and evaluated over the full collection.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	criteria := criteriaFromQuery(r)

	projects, err := h.projectRepo.ListProjects(r.Context())
	if err != nil {
		http.Error(w, "Failed to list projects: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobs, err := h.jobRepo.ListJobs(r.Context())
	if err != nil {
		http.Error(w, "Failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jobsByProject := groupJobs(jobs)

	now := time.Now()
	filtered := search.Apply(projects, criteria, now)

	items := make([]map[string]interface{}, len(filtered))
	for i, p := range filtered {
		projectJobs := jobsByProject[p.ID]
		if projectJobs == nil {
			projectJobs = []*models.Job{}
		}
		items[i] = h.projectView(p, projectJobs, now)
	}

	// statusCounts covers the whole collection so the filter sidebar stays
	// stable; total counts the filtered items the client pages through.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":        items,
		"total":        len(filtered),
		"statusCounts": search.CountByStatus(projects, now),
	})
}

// SearchProjects handles POST /v1/projects/search with a full criteria
// document, including the advanced per-field matchers.
func (h *ProjectHandler) SearchProjects(w http.ResponseWriter, r *http.Request) {
	var criteria search.Criteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	projects, err := h.projectRepo.ListProjects(r.Context())
	if err != nil {
		http.Error(w, "Failed to list projects: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	filtered := search.Apply(projects, criteria, now)

	items := make([]map[string]interface{}, len(filtered))
	for i, p := range filtered {
		items[i] = h.projectView(p, nil, now)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// GetProject handles GET /v1/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	project, err := h.projectRepo.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobs, err := h.jobRepo.ListJobsByProject(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to fetch jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.projectView(project, jobs, time.Now()))
}

// GetProjectStats handles GET /v1/projects/{id}/stats
func (h *ProjectHandler) GetProjectStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.projectRepo.GetProject(r.Context(), id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobs, err := h.jobRepo.ListJobsByProject(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to fetch jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, progress.ComputeProjectStats(jobs))
}

// UpdateProject handles PUT /v1/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	err := h.projectRepo.UpdateProject(r.Context(), id, map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"startDate":   req.StartDate,
		"endDate":     req.EndDate,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	project, err := h.projectRepo.GetProject(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to fetch project: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.projectView(project, nil, time.Now()))
}

// DeleteProject handles DELETE /v1/projects/{id}. The project's jobs are
// removed with it.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.projectRepo.DeleteProject(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

// projectView builds the API shape of a project: stored fields plus the
// time-derived status, and aggregate job stats when jobs are provided.
func (h *ProjectHandler) projectView(p *models.Project, jobs []*models.Job, now time.Time) map[string]interface{} {
	view := map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"startDate":   p.StartDate,
		"endDate":     p.EndDate,
		"userId":      p.UserID,
		"createdAt":   p.CreatedAt,
		"status":      progress.ProjectStatusAt(p, now),
	}
	if jobs != nil {
		view["stats"] = progress.ComputeProjectStats(jobs)
	}
	return view
}

func criteriaFromQuery(r *http.Request) search.Criteria {
	q := r.URL.Query()
	return search.Criteria{
		SearchTerm:  q.Get("search"),
		Status:      q.Get("status"),
		DateFilter:  q.Get("dateFilter"),
		CustomStart: q.Get("customStart"),
		CustomEnd:   q.Get("customEnd"),
		SortBy:      q.Get("sortBy"),
		SortOrder:   q.Get("sortOrder"),
	}
}

func groupJobs(jobs []*models.Job) map[string][]*models.Job {
	grouped := make(map[string][]*models.Job)
	for _, job := range jobs {
		grouped[job.ProjectID] = append(grouped[job.ProjectID], job)
	}
	return grouped
}
