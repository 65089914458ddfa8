package repository

import (
	"context"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/search"
)

// SavedSearchRepository handles store operations for saved searches
type SavedSearchRepository struct {
	store docstore.Store
}

// NewSavedSearchRepository creates a new saved search repository
func NewSavedSearchRepository(store docstore.Store) *SavedSearchRepository {
	return &SavedSearchRepository{store: store}
}

// CreateSavedSearch stores a named criteria set.
func (r *SavedSearchRepository) CreateSavedSearch(ctx context.Context, s *search.SavedSearch) error {
	s.CreatedAt = time.Now().UTC()
	id, err := r.store.Add(ctx, CollectionSavedSearches, s)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// ListSavedSearches returns every saved search.
func (r *SavedSearchRepository) ListSavedSearches(ctx context.Context) ([]*search.SavedSearch, error) {
	var searches []*search.SavedSearch
	if err := r.store.Query(ctx, CollectionSavedSearches, nil, &searches); err != nil {
		return nil, err
	}
	return searches, nil
}

// DeleteSavedSearch removes a saved search by id.
func (r *SavedSearchRepository) DeleteSavedSearch(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionSavedSearches, id)
}
