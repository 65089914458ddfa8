package repository

import (
	"context"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/models"
)

// BatchRepository handles store operations for planning batches
type BatchRepository struct {
	store docstore.Store
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(store docstore.Store) *BatchRepository {
	return &BatchRepository{store: store}
}

// CreateBatch stores a new batch and fills in its id and creation time.
func (r *BatchRepository) CreateBatch(ctx context.Context, batch *models.Batch) error {
	batch.CreatedAt = time.Now().UTC()
	id, err := r.store.Add(ctx, CollectionBatches, batch)
	if err != nil {
		return err
	}
	batch.ID = id
	return nil
}

// GetBatch retrieves a batch by id
func (r *BatchRepository) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var batch models.Batch
	if err := r.store.Get(ctx, CollectionBatches, id, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBatchesByProject returns all batches for one project.
func (r *BatchRepository) ListBatchesByProject(ctx context.Context, projectID string) ([]*models.Batch, error) {
	var batches []*models.Batch
	filter := map[string]interface{}{"projectId": projectID}
	if err := r.store.Query(ctx, CollectionBatches, filter, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// UpdateBatch merges the given fields into a batch.
func (r *BatchRepository) UpdateBatch(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.store.Update(ctx, CollectionBatches, id, fields)
}

// DeleteBatch removes a batch by id.
func (r *BatchRepository) DeleteBatch(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionBatches, id)
}
