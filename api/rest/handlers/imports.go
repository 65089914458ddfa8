package handlers

import (
	"errors"
	"io"
	"net/http"

	"fabtrack/core/docstore"
	"fabtrack/core/identity"
	"fabtrack/core/importer"
	"fabtrack/core/repository"

	"github.com/gorilla/mux"
)

// ImportHandler handles bulk CSV job imports
type ImportHandler struct {
	imp         *importer.Importer
	projectRepo *repository.ProjectRepository
	idp         identity.Provider
}

// NewImportHandler creates a new import handler
func NewImportHandler(
	imp *importer.Importer,
	projectRepo *repository.ProjectRepository,
	idp identity.Provider,
) *ImportHandler {
	return &ImportHandler{
		imp:         imp,
		projectRepo: projectRepo,
		idp:         idp,
	}
}

// ImportJobs handles POST /v1/projects/{id}/import. The request body is the
// raw CSV text.
func (h *ImportHandler) ImportJobs(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	if _, err := h.projectRepo.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	userID := h.idp.CurrentUser(r).ID
	imported, err := h.imp.Import(r.Context(), projectID, userID, string(body), nil)
	if err != nil {
		var impErr *importer.Error
		if errors.As(err, &impErr) {
			status := http.StatusBadRequest
			if impErr.Kind == importer.ErrWriteFailure {
				// Chunks committed before the failure stay committed.
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, map[string]interface{}{
				"error":    string(impErr.Kind),
				"detail":   impErr.Detail,
				"imported": imported,
			})
			return
		}
		http.Error(w, "Import failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"imported": imported})
}

// SampleCSV handles GET /v1/import/sample, serving the downloadable import
// template.
func (h *ImportHandler) SampleCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="jobs-sample.csv"`)
	w.Write([]byte(importer.SampleCSV()))
}
