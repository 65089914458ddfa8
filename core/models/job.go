package models

import "time"

// Step is one stage of a manufacturing checklist. Steps are ordered and the
// order is fixed at job creation time.
type Step struct {
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
}

// SubJob is one physical unit among a job's quantity, tracked through its
// own step checklist.
type SubJob struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Job represents a unit of manufacturing work within a project
type Job struct {
	ID          string  `json:"id,omitempty"`
	ProjectID   string  `json:"projectId"`
	UserID      string  `json:"userId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	UnitWeight  float64 `json:"unitWeight"`
	Quantity    int     `json:"quantity"`
	TotalWeight float64 `json:"totalWeight"`

	// Status is a denormalized cache over the step tree. It is recomputed
	// and persisted on every step mutation; the step data itself is the
	// source of truth.
	Status JobStatus `json:"status"`

	// Exactly one of Steps (legacy flat jobs) or SubJobs is populated.
	Steps   []Step   `json:"steps,omitempty"`
	SubJobs []SubJob `json:"subJobs,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusCompleted  JobStatus = "completed"
)

// HasSubJobs reports whether the job uses the sub-job shape rather than the
// legacy flat step list.
func (j *Job) HasSubJobs() bool {
	return len(j.SubJobs) > 0
}
