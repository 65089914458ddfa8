package handlers

import (
	"net/http"
	"sort"
	"time"

	"fabtrack/core/models"
	"fabtrack/core/progress"
	"fabtrack/core/repository"
	"fabtrack/core/search"
)

// DashboardHandler handles dashboard API requests
type DashboardHandler struct {
	projectRepo *repository.ProjectRepository
	jobRepo     *repository.JobRepository
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	projectRepo *repository.ProjectRepository,
	jobRepo *repository.JobRepository,
) *DashboardHandler {
	return &DashboardHandler{
		projectRepo: projectRepo,
		jobRepo:     jobRepo,
	}
}

// GetStats handles GET /v1/dashboard/stats. Projects and jobs are fetched
// independently; neither fetch may assume the other finished first, so the
// aggregation joins them by project id afterwards.
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectRepo.ListProjects(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch projects: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobs, err := h.jobRepo.ListJobs(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobsByProject := groupJobs(jobs)
	now := time.Now()

	projectStats := make([]map[string]interface{}, len(projects))
	for i, p := range projects {
		stats := progress.ComputeProjectStats(jobsByProject[p.ID])
		projectStats[i] = map[string]interface{}{
			"id":             p.ID,
			"name":           p.Name,
			"status":         progress.ProjectStatusAt(p, now),
			"completed":      stats.CompletedJobs,
			"total":          stats.JobCount,
			"completionRate": progress.Percent(stats.CompletedJobs, stats.JobCount),
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalProjects":  len(projects),
		"jobs":           progress.ComputeOverallStats(jobs),
		"projects":       projectStats,
		"statusCounts":   search.CountByStatus(projects, now),
		"recentProjects": recentProjects(projects, 5),
	})
}

// recentProjects returns the latest-created projects, newest first.
func recentProjects(projects []*models.Project, limit int) []*models.Project {
	recent := make([]*models.Project, len(projects))
	copy(recent, projects)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}
