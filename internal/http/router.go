package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lumina/internal/catalog"
	"lumina/internal/dedup"
	"lumina/internal/handlers"
	"lumina/internal/ingest"
	"lumina/internal/similarity"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB       *catalog.DB
	Assets   catalog.AssetStore
	Albums   catalog.AlbumStore
	Index    *similarity.Index
	Resolver *dedup.Resolver
	Jobs     *ingest.JobManager
	// BaseCtx scopes background scan jobs to the process lifetime.
	BaseCtx context.Context
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	assetHandler := handlers.NewAssetHandler(deps.Assets, deps.Index)
	albumHandler := handlers.NewAlbumHandler(deps.Albums)
	scanHandler := handlers.NewScanHandler(deps.Jobs, deps.BaseCtx)
	dedupHandler := handlers.NewDedupHandler(deps.Index, deps.Resolver, deps.Assets)
	statsHandler := handlers.NewStatsHandler(deps.Assets, deps.Index, deps.Resolver)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", assetHandler.List)
			r.Get("/{id}", assetHandler.Get)
			r.Patch("/{id}", assetHandler.Patch)
		})
		r.Post("/trash/purge", assetHandler.PurgeTrash)

		r.Route("/albums", func(r chi.Router) {
			r.Get("/", albumHandler.List)
			r.Post("/", albumHandler.Create)
			r.Patch("/{id}", albumHandler.Rename)
			r.Delete("/{id}", albumHandler.Delete)
		})

		r.Route("/scans", func(r chi.Router) {
			r.Get("/", scanHandler.List)
			r.Post("/", scanHandler.Start)
			r.Get("/{id}", scanHandler.Get)
			r.Delete("/{id}", scanHandler.Cancel)
		})

		r.Route("/clusters", func(r chi.Router) {
			r.Get("/", dedupHandler.ListClusters)
			r.Post("/rebuild", dedupHandler.Rebuild)
			r.Post("/{id}/ignore", dedupHandler.Ignore)
			r.Get("/{id}/recommendation", dedupHandler.Recommend)
			r.Post("/{id}/resolve", dedupHandler.Resolve)
		})

		r.Get("/stats", statsHandler.Get)
		r.Get("/health", healthHandler.Get)
	})

	return r
}
