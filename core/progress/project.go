package progress

import (
	"time"

	"fabtrack/core/models"
)

// ProjectStats aggregates job numbers for one project.
type ProjectStats struct {
	JobCount       int     `json:"jobCount"`
	TotalQuantity  int     `json:"totalQuantity"`
	TotalWeight    float64 `json:"totalWeight"`
	CompletedJobs  int     `json:"completedJobs"`
	CompletionRate float64 `json:"completionRate"` // 0..1, 0 when there are no jobs
}

// OverallStats counts jobs per status bucket across all projects.
type OverallStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

// ComputeProjectStats sums quantities and weights and derives the completion
// ratio for a project's jobs. Completion uses the live step-tree derivation
// whenever step data is present; the cached status field is only consulted
// for jobs fetched without their step tree.
func ComputeProjectStats(jobs []*models.Job) ProjectStats {
	stats := ProjectStats{JobCount: len(jobs)}
	for _, job := range jobs {
		stats.TotalQuantity += job.Quantity
		stats.TotalWeight += job.TotalWeight
		if effectiveStatus(job) == models.JobStatusCompleted {
			stats.CompletedJobs++
		}
	}
	if stats.JobCount > 0 {
		stats.CompletionRate = float64(stats.CompletedJobs) / float64(stats.JobCount)
	}
	return stats
}

// ComputeOverallStats buckets all jobs by status for dashboard summaries.
func ComputeOverallStats(jobs []*models.Job) OverallStats {
	stats := OverallStats{Total: len(jobs)}
	for _, job := range jobs {
		switch effectiveStatus(job) {
		case models.JobStatusCompleted:
			stats.Completed++
		case models.JobStatusInProgress:
			stats.InProgress++
		default:
			stats.Pending++
		}
	}
	return stats
}

func effectiveStatus(job *models.Job) models.JobStatus {
	if job.HasSubJobs() || len(job.Steps) > 0 {
		return Recompute(job)
	}
	return job.Status
}

// ProjectStatusAt derives a project's status from its date range. Missing
// or unparseable dates fail open to active; a past end date always means
// completed.
func ProjectStatusAt(p *models.Project, now time.Time) models.ProjectStatus {
	start, okStart := ParseDate(p.StartDate)
	end, okEnd := ParseDate(p.EndDate)
	if !okStart || !okEnd {
		return models.ProjectStatusActive
	}

	if start.After(now) {
		return models.ProjectStatusUpcoming
	}
	if end.Before(now) {
		return models.ProjectStatusCompleted
	}
	return models.ProjectStatusActive
}

// ParseDate parses the ISO date strings stored on projects. The second
// return is false for empty or malformed values.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
