package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/identity"
	"fabtrack/core/models"
	"fabtrack/core/progress"
	"fabtrack/core/repository"
	"fabtrack/core/template"

	"github.com/gorilla/mux"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobRepo     *repository.JobRepository
	projectRepo *repository.ProjectRepository
	checklist   *template.Checklist
	idp         identity.Provider
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	jobRepo *repository.JobRepository,
	projectRepo *repository.ProjectRepository,
	checklist *template.Checklist,
	idp identity.Provider,
) *JobHandler {
	return &JobHandler{
		jobRepo:     jobRepo,
		projectRepo: projectRepo,
		checklist:   checklist,
		idp:         idp,
	}
}

// JobRequest represents the request to create or update a job. Numeric
// fields accept either JSON numbers or strings; unparseable values coerce
// to zero.
type JobRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	UnitWeight  interface{} `json:"unitWeight"`
	Quantity    interface{} `json:"quantity"`
}

// CreateJob handles POST /v1/projects/{id}/jobs
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	if _, err := h.projectRepo.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	unitWeight := parseNumericValue(req.UnitWeight)
	quantity := int(parseNumericValue(req.Quantity))

	job := &models.Job{
		ProjectID:   projectID,
		UserID:      h.idp.CurrentUser(r).ID,
		Name:        req.Name,
		Description: req.Description,
		UnitWeight:  unitWeight,
		Quantity:    quantity,
		TotalWeight: unitWeight * float64(quantity),
		Status:      models.JobStatusPending,
		SubJobs:     h.checklist.NewSubJobs(req.Name, quantity),
	}

	if err := h.jobRepo.CreateJob(r.Context(), job); err != nil {
		http.Error(w, "Failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, jobView(job))
}

// ListJobs handles GET /v1/projects/{id}/jobs with an optional name search.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	searchTerm := strings.ToLower(r.URL.Query().Get("search"))

	jobs, err := h.jobRepo.ListJobsByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, "Failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		if searchTerm != "" && !strings.Contains(strings.ToLower(job.Name), searchTerm) {
			continue
		}
		items = append(items, jobView(job))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"stats": progress.ComputeProjectStats(jobs),
	})
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.jobRepo.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	view := jobView(job)
	if job.HasSubJobs() {
		view["subJobs"] = subJobViews(job)
	} else {
		view["steps"] = job.Steps
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateJob handles PUT /v1/jobs/{id}. Weight totals are recomputed with the
// edit, and a quantity change resizes the sub-job list: surplus units are
// dropped, new units start with a fresh checklist.
func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	job, err := h.jobRepo.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	unitWeight := parseNumericValue(req.UnitWeight)
	quantity := int(parseNumericValue(req.Quantity))

	fields := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"unitWeight":  unitWeight,
		"quantity":    quantity,
		"totalWeight": unitWeight * float64(quantity),
	}

	// Legacy flat jobs keep their single step list; everything else tracks
	// one sub-job per unit, so a quantity edit resizes the list even when it
	// is currently empty.
	if len(job.Steps) == 0 && quantity != len(job.SubJobs) {
		if dropped := len(job.SubJobs) - quantity; dropped > 0 {
			log.Printf("Job %s quantity shrink discards %d sub-jobs and their progress", id, dropped)
		}
		job.SubJobs = h.checklist.ResizeSubJobs(req.Name, job.SubJobs, quantity)
		job.Status = progress.Recompute(job)
		fields["subJobs"] = job.SubJobs
		fields["status"] = job.Status
	}

	if err := h.jobRepo.UpdateJob(r.Context(), id, fields); err != nil {
		http.Error(w, "Failed to update job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	job, err = h.jobRepo.GetJob(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobView(job))
}

// DeleteJob handles DELETE /v1/jobs/{id}
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.jobRepo.DeleteJob(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

// ToggleSubJobStep handles POST /v1/jobs/{id}/subjobs/{subJob}/steps/{step}/toggle
func (h *JobHandler) ToggleSubJobStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.toggleStep(w, r, vars["id"], vars["subJob"], vars["step"])
}

// ToggleStep handles POST /v1/jobs/{id}/steps/{step}/toggle for legacy jobs
// with a flat step list.
func (h *JobHandler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.toggleStep(w, r, vars["id"], "", vars["step"])
}

func (h *JobHandler) toggleStep(w http.ResponseWriter, r *http.Request, jobID, subJobVar, stepVar string) {
	stepIndex, err := strconv.Atoi(stepVar)
	if err != nil {
		http.Error(w, "Invalid step index", http.StatusBadRequest)
		return
	}

	job, err := h.jobRepo.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	if subJobVar == "" {
		err = progress.ToggleFlatStep(job, stepIndex, now)
	} else {
		subJobIndex, convErr := strconv.Atoi(subJobVar)
		if convErr != nil {
			http.Error(w, "Invalid sub-job index", http.StatusBadRequest)
			return
		}
		err = progress.ToggleStep(job, subJobIndex, stepIndex, now)
	}
	if err != nil {
		if errors.Is(err, progress.ErrSequentialOrder) {
			http.Error(w, "Please complete previous steps in order before marking this step as complete.", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.jobRepo.SaveStepState(r.Context(), job); err != nil {
		http.Error(w, "Failed to save step state: "+err.Error(), http.StatusInternalServerError)
		return
	}

	view := jobView(job)
	if job.HasSubJobs() {
		view["subJobs"] = subJobViews(job)
	} else {
		view["steps"] = job.Steps
	}
	writeJSON(w, http.StatusOK, view)
}

// jobView builds the API shape of a job with its derived progress numbers.
func jobView(job *models.Job) map[string]interface{} {
	completed, total := progress.JobProgress(job)
	return map[string]interface{}{
		"id":          job.ID,
		"projectId":   job.ProjectID,
		"name":        job.Name,
		"description": job.Description,
		"unitWeight":  job.UnitWeight,
		"quantity":    job.Quantity,
		"totalWeight": job.TotalWeight,
		"status":      job.Status,
		"createdAt":   job.CreatedAt,
		"progress": map[string]interface{}{
			"completedSteps": completed,
			"totalSteps":     total,
			"percent":        progress.Percent(completed, total),
		},
	}
}

func subJobViews(job *models.Job) []map[string]interface{} {
	views := make([]map[string]interface{}, len(job.SubJobs))
	for i, sj := range job.SubJobs {
		completed, total := progress.SubJobProgress(sj)
		views[i] = map[string]interface{}{
			"name":    sj.Name,
			"steps":   sj.Steps,
			"status":  progress.ClassifySubJob(sj),
			"percent": progress.Percent(completed, total),
		}
	}
	return views
}
