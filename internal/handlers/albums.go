package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumina/internal/catalog"
)

// AlbumHandler handles album CRUD.
type AlbumHandler struct {
	albums catalog.AlbumStore
}

// NewAlbumHandler creates a new AlbumHandler.
func NewAlbumHandler(albums catalog.AlbumStore) *AlbumHandler {
	return &AlbumHandler{albums: albums}
}

type albumRequest struct {
	Name string `json:"name"`
}

// List returns all albums.
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albums.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if albums == nil {
		albums = []*catalog.Album{}
	}
	respondJSON(w, r, http.StatusOK, albums)
}

// Create adds a new album.
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	album, err := h.albums.Create(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, album)
}

// Rename changes an album's name.
func (h *AlbumHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.albums.Rename(r.Context(), id, req.Name); err != nil {
		respondError(w, r, err)
		return
	}
	album, err := h.albums.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, album)
}

// Delete removes an album. Member assets stay; their membership is cleared.
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.albums.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
