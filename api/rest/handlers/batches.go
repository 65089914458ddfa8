package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fabtrack/core/docstore"
	"fabtrack/core/models"
	"fabtrack/core/repository"

	"github.com/gorilla/mux"
)

// BatchHandler handles planning-batch HTTP requests
type BatchHandler struct {
	batchRepo *repository.BatchRepository
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batchRepo *repository.BatchRepository) *BatchHandler {
	return &BatchHandler{batchRepo: batchRepo}
}

// BatchRequest represents the request to create or update a batch
type BatchRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	TotalWeight interface{} `json:"totalWeight"`
	Quantity    interface{} `json:"quantity"`
}

// CreateBatch handles POST /v1/projects/{id}/batches
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	batch := &models.Batch{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalWeight: parseNumericValue(req.TotalWeight),
		Quantity:    int(parseNumericValue(req.Quantity)),
	}

	if err := h.batchRepo.CreateBatch(r.Context(), batch); err != nil {
		http.Error(w, "Failed to create batch: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, batch)
}

// ListBatches handles GET /v1/projects/{id}/batches
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	batches, err := h.batchRepo.ListBatchesByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, "Failed to list batches: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": batches})
}

// UpdateBatch handles PUT /v1/batches/{id}
func (h *BatchHandler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if fields := validateRequired(map[string]string{"name": req.Name}); fields != nil {
		writeValidationError(w, fields)
		return
	}

	err := h.batchRepo.UpdateBatch(r.Context(), id, map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"startDate":   req.StartDate,
		"endDate":     req.EndDate,
		"totalWeight": parseNumericValue(req.TotalWeight),
		"quantity":    int(parseNumericValue(req.Quantity)),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Batch not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update batch: "+err.Error(), http.StatusInternalServerError)
		return
	}

	batch, err := h.batchRepo.GetBatch(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to fetch batch: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// DeleteBatch handles DELETE /v1/batches/{id}
func (h *BatchHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.batchRepo.DeleteBatch(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete batch: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}
