package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lumina/internal/catalog"
	"lumina/internal/contextutil"
)

// similarityUpdater is the slice of the similarity index asset edits need:
// trashing removes an asset from the neighbor graph, restoring re-adds it.
type similarityUpdater interface {
	Add(assetID, exactHash string, perceptualHash *uint64)
	Remove(assetID string)
}

// AssetHandler handles asset queries and edits.
type AssetHandler struct {
	assets catalog.AssetStore
	index  similarityUpdater
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assets catalog.AssetStore, index similarityUpdater) *AssetHandler {
	return &AssetHandler{assets: assets, index: index}
}

type assetListResponse struct {
	Assets []*catalog.Asset `json:"assets"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// List returns a page of assets matching the query parameters.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.AssetFilter{
		AlbumID: q.Get("album"),
		Tag:     q.Get("tag"),
		Search:  q.Get("q"),
		Kind:    catalog.MediaKind(q.Get("kind")),
	}
	switch q.Get("trash") {
	case "", "false":
		filter.Trash = catalog.TrashExclude
	case "true":
		filter.Trash = catalog.TrashOnly
	case "any":
		filter.Trash = catalog.TrashAny
	}
	if q.Get("favorite") == "true" {
		filter.FavoriteOnly = true
	}
	if v := q.Get("minRating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, &catalog.ValidationError{Field: "minRating", Message: "must be an integer"})
			return
		}
		filter.MinRating = n
	}

	sort := catalog.AssetSort{
		Field:      catalog.SortField(q.Get("sort")),
		Descending: q.Get("order") == "desc",
	}

	page := catalog.Page{}
	if v := q.Get("limit"); v != "" {
		page.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		page.Offset, _ = strconv.Atoi(v)
	}

	assets, err := h.assets.Query(r.Context(), filter, sort, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := h.assets.Count(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if assets == nil {
		assets = []*catalog.Asset{}
	}

	limit, offset := page.Limit, page.Offset
	if limit <= 0 {
		limit = 100
	}
	respondJSON(w, r, http.StatusOK, assetListResponse{
		Assets: assets,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get returns one asset.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, asset)
}

// assetPatch carries partial edits; nil fields are left unchanged. AlbumID
// accepts the empty string to clear membership, which is why it is a
// pointer rather than omitempty.
type assetPatch struct {
	Rating   *int      `json:"rating"`
	Favorite *bool     `json:"favorite"`
	Label    *string   `json:"label"`
	Tags     *[]string `json:"tags"`
	Notes    *string   `json:"notes"`
	AlbumID  *string   `json:"albumId"`
	InTrash  *bool     `json:"inTrash"`
	FileName *string   `json:"fileName"`
}

// Patch applies user edits (rating, tags, trash, album moves) to an asset.
func (h *AssetHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch assetPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id := chi.URLParam(r, "id")

	// The read-modify-write runs inside the store's transaction, so a
	// concurrent edit to the same asset cannot be lost.
	var wasTrashed bool
	stored, err := h.assets.Update(r.Context(), id, func(asset *catalog.Asset) error {
		wasTrashed = asset.InTrash
		if patch.Rating != nil {
			asset.Rating = *patch.Rating
		}
		if patch.Favorite != nil {
			asset.Favorite = *patch.Favorite
		}
		if patch.Label != nil {
			asset.Label = catalog.ColorLabel(*patch.Label)
		}
		if patch.Tags != nil {
			asset.Tags = *patch.Tags
		}
		if patch.Notes != nil {
			asset.Notes = *patch.Notes
		}
		if patch.AlbumID != nil {
			asset.AlbumID = *patch.AlbumID
		}
		if patch.InTrash != nil {
			asset.InTrash = *patch.InTrash
		}
		if patch.FileName != nil && *patch.FileName != "" {
			asset.FileName = *patch.FileName
		}
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if stored.InTrash != wasTrashed {
		if stored.InTrash {
			h.index.Remove(stored.ID)
		} else {
			h.index.Add(stored.ID, stored.ExactHash, stored.PerceptualHash)
		}
	}

	respondJSON(w, r, http.StatusOK, stored)
}

type purgeResponse struct {
	Purged int `json:"purged"`
}

// PurgeTrash permanently deletes everything in the trash.
func (h *AssetHandler) PurgeTrash(w http.ResponseWriter, r *http.Request) {
	ids, err := h.assets.PurgeTrash(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	for _, id := range ids {
		h.index.Remove(id)
	}
	logger := contextutil.LoggerFromContext(r.Context())
	logger.InfoContext(r.Context(), "purged trash", "count", len(ids))
	respondJSON(w, r, http.StatusOK, purgeResponse{Purged: len(ids)})
}
