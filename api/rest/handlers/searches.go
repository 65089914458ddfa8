package handlers

import (
	"encoding/json"
	"net/http"

	"fabtrack/core/identity"
	"fabtrack/core/repository"
	"fabtrack/core/search"

	"github.com/gorilla/mux"
)

// SavedSearchHandler handles saved filter criteria
type SavedSearchHandler struct {
	searchRepo *repository.SavedSearchRepository
	idp        identity.Provider
}

// NewSavedSearchHandler creates a new saved search handler
func NewSavedSearchHandler(searchRepo *repository.SavedSearchRepository, idp identity.Provider) *SavedSearchHandler {
	return &SavedSearchHandler{searchRepo: searchRepo, idp: idp}
}

// SavedSearchRequest represents the request to save a search
type SavedSearchRequest struct {
	Name     string          `json:"name"`
	Criteria search.Criteria `json:"criteria"`
}

// CreateSavedSearch handles POST /v1/searches
func (h *SavedSearchHandler) CreateSavedSearch(w http.ResponseWriter, r *http.Request) {
	var req SavedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	saved := &search.SavedSearch{
		Name:     req.Name,
		UserID:   h.idp.CurrentUser(r).ID,
		Criteria: req.Criteria,
	}
	if err := h.searchRepo.CreateSavedSearch(r.Context(), saved); err != nil {
		http.Error(w, "Failed to save search: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

// ListSavedSearches handles GET /v1/searches
func (h *SavedSearchHandler) ListSavedSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := h.searchRepo.ListSavedSearches(r.Context())
	if err != nil {
		http.Error(w, "Failed to list searches: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": searches})
}

// DeleteSavedSearch handles DELETE /v1/searches/{id}
func (h *SavedSearchHandler) DeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.searchRepo.DeleteSavedSearch(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete search: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}
