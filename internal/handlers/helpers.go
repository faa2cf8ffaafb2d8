package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"lumina/internal/catalog"
	"lumina/internal/contextutil"
	"lumina/internal/dedup"
	"lumina/internal/ingest"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondError maps domain errors onto HTTP statuses: validation problems
// are 400, missing records 404, stale or conflicting resolutions 409.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var validationErr *catalog.ValidationError
	var staleErr *dedup.StaleClusterError
	var resolutionErr *dedup.ResolutionError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, ingest.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.As(err, &staleErr), errors.As(err, &resolutionErr):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "request failed", "error", err)
	}
	respondJSON(w, r, status, errorResponse{Error: err.Error()})
}
