package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumina/internal/catalog"
	"lumina/internal/contextutil"
	"lumina/internal/dedup"
	"lumina/internal/similarity"
)

// DedupHandler serves the deduplication review screen: cluster listing,
// keeper recommendations, and resolution.
type DedupHandler struct {
	index    *similarity.Index
	resolver *dedup.Resolver
	assets   catalog.AssetStore
}

// NewDedupHandler creates a new DedupHandler.
func NewDedupHandler(index *similarity.Index, resolver *dedup.Resolver, assets catalog.AssetStore) *DedupHandler {
	return &DedupHandler{index: index, resolver: resolver, assets: assets}
}

// ListClusters returns similarity clusters, optionally filtered by the
// status query parameter.
func (h *DedupHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	status := catalog.ClusterStatus(r.URL.Query().Get("status"))
	clusters, err := h.index.ListClusters(r.Context(), status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if clusters == nil {
		clusters = []*catalog.Cluster{}
	}
	respondJSON(w, r, http.StatusOK, clusters)
}

// Ignore marks a cluster ignored so it drops out of active review.
func (h *DedupHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Ignore(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// Recommend returns the keeper recommendation for a cluster.
func (h *DedupHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	rec, err := h.resolver.Recommend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, dedup.ErrNothingToResolve) {
			respondJSON(w, r, http.StatusOK, map[string]any{"nothingToResolve": true})
			return
		}
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, rec)
}

type resolveRequest struct {
	// Decisions maps asset id to "keep" or "trash". Members without a
	// decision are kept.
	Decisions map[string]dedup.Decision `json:"decisions"`
	// MembershipHash is echoed from the recommendation; a mismatch means
	// the cluster changed and resolution is rejected as stale.
	MembershipHash string `json:"membershipHash"`
}

// Resolve applies per-asset keep/trash decisions to a cluster.
func (h *DedupHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.resolver.Resolve(r.Context(), id, req.Decisions, req.MembershipHash); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// Rebuild recomputes the whole similarity index from persisted hashes.
// This is the "Scan Library" action on the dedup screen; it reads no files.
func (h *DedupHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	rows, err := h.assets.ListFingerprints(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.index.RebuildAll(r.Context(), rows); err != nil {
		respondError(w, r, err)
		return
	}
	logger := contextutil.LoggerFromContext(r.Context())
	logger.InfoContext(r.Context(), "similarity index rebuilt", "assets", len(rows))
	respondJSON(w, r, http.StatusNoContent, nil)
}
