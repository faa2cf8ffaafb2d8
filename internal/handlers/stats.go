package handlers

import (
	"errors"
	"net/http"

	"lumina/internal/catalog"
	"lumina/internal/dedup"
	"lumina/internal/similarity"
)

// StatsHandler serves the library status footer.
type StatsHandler struct {
	assets   catalog.AssetStore
	index    *similarity.Index
	resolver *dedup.Resolver
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(assets catalog.AssetStore, index *similarity.Index, resolver *dedup.Resolver) *StatsHandler {
	return &StatsHandler{assets: assets, index: index, resolver: resolver}
}

type statsResponse struct {
	catalog.LibraryStats
	// ReclaimableBytes totals the space freed by accepting every open
	// keeper recommendation.
	ReclaimableBytes int64 `json:"reclaimableBytes"`
}

// Get returns catalog counts plus the bytes reclaimable from unresolved
// duplicate clusters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.assets.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := statsResponse{LibraryStats: *stats}

	clusters, err := h.index.ListClusters(r.Context(), catalog.ClusterUnresolved)
	if err != nil {
		respondError(w, r, err)
		return
	}
	for _, c := range clusters {
		rec, err := h.resolver.Recommend(r.Context(), c.ID)
		if err != nil {
			// Clusters can shrink below two active members between the
			// listing and the recommendation.
			if errors.Is(err, dedup.ErrNothingToResolve) {
				continue
			}
			var stale *dedup.StaleClusterError
			if errors.As(err, &stale) {
				continue
			}
			respondError(w, r, err)
			return
		}
		resp.ReclaimableBytes += rec.ReclaimableBytes
	}

	respondJSON(w, r, http.StatusOK, resp)
}
