package repository

import (
	"context"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/models"
)

// JobRepository handles store operations for jobs
type JobRepository struct {
	store docstore.Store
}

// NewJobRepository creates a new job repository
func NewJobRepository(store docstore.Store) *JobRepository {
	return &JobRepository{store: store}
}

// CreateJob stores a new job and fills in its id and creation time.
func (r *JobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	job.CreatedAt = time.Now().UTC()
	id, err := r.store.Add(ctx, CollectionJobs, job)
	if err != nil {
		return err
	}
	job.ID = id
	return nil
}

// GetJob retrieves a job by id
func (r *JobRepository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.store.Get(ctx, CollectionJobs, id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobsByProject returns all jobs owned by one project.
func (r *JobRepository) ListJobsByProject(ctx context.Context, projectID string) ([]*models.Job, error) {
	var jobs []*models.Job
	filter := map[string]interface{}{"projectId": projectID}
	if err := r.store.Query(ctx, CollectionJobs, filter, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListJobs returns all jobs across all projects, for dashboard aggregation.
func (r *JobRepository) ListJobs(ctx context.Context) ([]*models.Job, error) {
	var jobs []*models.Job
	if err := r.store.Query(ctx, CollectionJobs, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJob merges the given fields into a job and stamps updatedAt.
func (r *JobRepository) UpdateJob(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updatedAt"] = time.Now().UTC()
	return r.store.Update(ctx, CollectionJobs, id, fields)
}

// SaveStepState persists a job's full mutated step tree together with its
// recomputed status after a step toggle.
func (r *JobRepository) SaveStepState(ctx context.Context, job *models.Job) error {
	fields := map[string]interface{}{
		"status":    job.Status,
		"updatedAt": time.Now().UTC(),
	}
	if job.HasSubJobs() {
		fields["subJobs"] = job.SubJobs
	} else {
		fields["steps"] = job.Steps
	}
	return r.store.Update(ctx, CollectionJobs, job.ID, fields)
}

// DeleteJob removes a job by id.
func (r *JobRepository) DeleteJob(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionJobs, id)
}
