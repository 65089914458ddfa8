package models

import "time"

// Project is a top-level grouping of jobs with a date range. Its status is
// never stored; it is derived from the date range on every read.
type Project struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"startDate,omitempty"` // ISO date, empty = not set
	EndDate     string    `json:"endDate,omitempty"`   // ISO date, empty = not set
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// ProjectStatus is the time-derived status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusUpcoming  ProjectStatus = "upcoming"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Batch groups jobs for planning purposes within a project.
type Batch struct {
	ID          string    `json:"id,omitempty"`
	ProjectID   string    `json:"projectId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	TotalWeight float64   `json:"totalWeight"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
}
