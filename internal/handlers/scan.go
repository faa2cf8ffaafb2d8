package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumina/internal/ingest"
)

// ScanHandler starts and tracks import scans. Scans run in the background;
// the UI polls the job for progress.
type ScanHandler struct {
	jobs *ingest.JobManager
	// baseCtx scopes running scans to the process, not to the request that
	// started them.
	baseCtx context.Context
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(jobs *ingest.JobManager, baseCtx context.Context) *ScanHandler {
	return &ScanHandler{jobs: jobs, baseCtx: baseCtx}
}

type scanRequest struct {
	Sources  []string        `json:"sources"`
	Strategy ingest.Strategy `json:"strategy"`
}

// Start launches a scan job.
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	snap, err := h.jobs.Start(h.baseCtx, req.Sources, req.Strategy)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, snap)
}

// List returns all scan jobs, newest first.
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.jobs.List())
}

// Get returns one job's progress snapshot.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, snap)
}

// Cancel requests cooperative cancellation of a running scan.
func (h *ScanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.Cancel(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
