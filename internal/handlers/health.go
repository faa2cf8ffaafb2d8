package handlers

import (
	"net/http"

	"lumina/internal/catalog"
)

// HealthHandler reports process liveness and database reachability.
type HealthHandler struct {
	db *catalog.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *catalog.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Get returns 200 when the database answers a ping, 503 otherwise.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		respondJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: err.Error()})
		return
	}
	respondJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}
