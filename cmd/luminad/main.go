package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/dedup"
	"lumina/internal/fingerprint"
	"lumina/internal/http"
	"lumina/internal/ingest"
	"lumina/internal/similarity"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize catalog database
	db, err := catalog.Open(cfg.DBPath)
	if err != nil {
		var integrityErr *catalog.IntegrityError
		switch {
		case errors.As(err, &integrityErr):
			log.Fatalf("Catalog database failed its integrity check, restore from backup: %v", err)
		case errors.Is(err, catalog.ErrLocked):
			log.Fatalf("Another instance already owns this library: %v", err)
		default:
			log.Fatalf("Failed to open database: %v", err)
		}
	}
	defer func() {
		_ = db.Close()
	}()

	if err := catalog.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Catalog initialized", "path", cfg.DBPath)

	// Create repository instances
	assetRepo := catalog.NewAssetRepo(db)
	albumRepo := catalog.NewAlbumRepo(db)
	clusterRepo := catalog.NewClusterRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the similarity index from persisted fingerprints so restarts
	// never rehash files.
	index, err := similarity.New(clusterRepo, cfg.SimilarityThreshold)
	if err != nil {
		log.Fatalf("Failed to create similarity index: %v", err)
	}
	rows, err := assetRepo.ListFingerprints(ctx)
	if err != nil {
		log.Fatalf("Failed to load fingerprints: %v", err)
	}
	index.Load(rows)
	if err := index.Flush(ctx); err != nil {
		log.Fatalf("Failed to persist similarity clusters: %v", err)
	}
	slog.Info("Similarity index ready", "assets", len(rows), "threshold", cfg.SimilarityThreshold)

	resolver := dedup.NewResolver(assetRepo, clusterRepo, index)

	// Create ingest pipeline and scan job manager
	engine := fingerprint.New(cfg.HashTimeout)
	pipeline := ingest.NewPipeline(assetRepo, engine, index, cfg.StoragePath, cfg.ScanWorkers)
	jobs := ingest.NewJobManager(pipeline)

	// Watch configured folders for new media
	if len(cfg.WatchPaths) > 0 {
		watcher := ingest.NewWatcher(pipeline, cfg.WatchPaths, ingest.StrategyReference)
		go func() {
			slog.Info("Watching folders for new media", "paths", cfg.WatchPaths)
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Folder watcher stopped", "error", err)
			}
		}()
	}

	// Periodically flush in-memory similarity edges to the catalog
	go index.Run(ctx, cfg.FlushInterval)

	// Create router with dependencies
	deps := &http.Deps{
		DB:       db,
		Assets:   assetRepo,
		Albums:   albumRepo,
		Index:    index,
		Resolver: resolver,
		Jobs:     jobs,
		BaseCtx:  ctx,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down")
		_ = server.Shutdown(context.Background())
	}()

	slog.Info("Starting API server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}
