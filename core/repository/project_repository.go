// Package repository provides typed collection access for the tracking
// domain on top of the document store.
package repository

import (
	"context"
	"fmt"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/models"
)

// Collection names in the document store.
const (
	CollectionProjects      = "projects"
	CollectionJobs          = "jobs"
	CollectionBatches       = "batches"
	CollectionSavedSearches = "saved_searches"
)

// ProjectRepository handles store operations for projects
type ProjectRepository struct {
	store docstore.Store
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(store docstore.Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// CreateProject stores a new project and fills in its id and creation time.
func (r *ProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	project.CreatedAt = time.Now().UTC()
	id, err := r.store.Add(ctx, CollectionProjects, project)
	if err != nil {
		return err
	}
	project.ID = id
	return nil
}

// GetProject retrieves a project by id
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.store.Get(ctx, CollectionProjects, id, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns all projects. Every user sees every project; the
// stored userId is audit metadata only.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	if err := r.store.Query(ctx, CollectionProjects, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject merges the given fields into a project and stamps updatedAt.
func (r *ProjectRepository) UpdateProject(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updatedAt"] = time.Now().UTC()
	return r.store.Update(ctx, CollectionProjects, id, fields)
}

// DeleteProject removes a project together with every job it owns.
func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	var jobs []*models.Job
	if err := r.store.Query(ctx, CollectionJobs, map[string]interface{}{"projectId": id}, &jobs); err != nil {
		return fmt.Errorf("failed to list project jobs: %w", err)
	}
	for _, job := range jobs {
		if err := r.store.Delete(ctx, CollectionJobs, job.ID); err != nil {
			return fmt.Errorf("failed to delete job %s: %w", job.ID, err)
		}
	}
	return r.store.Delete(ctx, CollectionProjects, id)
}
