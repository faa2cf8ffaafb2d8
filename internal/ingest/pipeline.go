package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"lumina/internal/catalog"
	"lumina/internal/fingerprint"
)

// Strategy selects how ingested originals are owned.
type Strategy string

const (
	// StrategyReference indexes files in place; the library never owns them.
	StrategyReference Strategy = "reference"
	// StrategyManaged copies originals into library storage (unchanged
	// bytes) before cataloging.
	StrategyManaged Strategy = "managed"
)

// Outcome classifies one file's ingest result.
type Outcome string

const (
	OutcomeImported Outcome = "imported"
	// OutcomeUpdated means a previously ingested path changed content and
	// its existing record was refreshed; no new id is minted.
	OutcomeUpdated Outcome = "updated"
	// OutcomeDuplicate means the file's bytes are already cataloged. A
	// previously ingested unchanged path is skipped outright; a new path
	// with known bytes still gets its own record, so exact duplicates meet
	// in one cluster for review. A normal ingest outcome, not a failure.
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Result is the per-file outcome of a scan.
type Result struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	AssetID string  `json:"assetId,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Summary is the final tally of a scan.
type Summary struct {
	Imported  int      `json:"imported"`
	Updated   int      `json:"updated"`
	Duplicate int      `json:"skippedDuplicate"`
	Failed    int      `json:"failed"`
	Failures  []Result `json:"failures,omitempty"`
}

// indexUpdater is the slice of the similarity index the pipeline feeds.
// Remove covers assets that turn errored on a re-scan; their stale hashes
// must leave the neighbor graph.
type indexUpdater interface {
	Add(assetID, exactHash string, perceptualHash *uint64)
	Remove(assetID string)
	Flush(ctx context.Context) error
}

// Pipeline orchestrates scanning filesystem sources into the catalog.
type Pipeline struct {
	assets     catalog.AssetStore
	engine     *fingerprint.Engine
	index      indexUpdater
	storageDir string
	workers    int
	hashLocks  keyedMutex
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline. storageDir is the library-owned directory
// managed-strategy scans copy originals into. workers <= 0 sizes the pool
// to the available cores.
func NewPipeline(assets catalog.AssetStore, engine *fingerprint.Engine, index indexUpdater, storageDir string, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		assets:     assets,
		engine:     engine,
		index:      index,
		storageDir: storageDir,
		workers:    workers,
		logger:     slog.Default(),
	}
}

// Scan discovers media files under sources and ingests them on a bounded
// worker pool. Each file yields exactly one Result, reported through
// progress (may be nil) as it happens and tallied into the Summary.
// One bad file never aborts the scan; cancellation is cooperative and
// takes effect between files, never mid-record.
func (p *Pipeline) Scan(ctx context.Context, sources []string, strategy Strategy, progress func(Result)) (*Summary, error) {
	if strategy == "" {
		strategy = StrategyReference
	}
	if strategy != StrategyReference && strategy != StrategyManaged {
		return nil, fmt.Errorf("unknown ingest strategy %q", strategy)
	}

	g, gctx := errgroup.WithContext(ctx)
	files := make(chan WalkedFile)
	results := make(chan Result)

	g.Go(func() error {
		defer close(files)
		return walkSources(gctx, sources, func(f WalkedFile) error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case files <- f:
				return nil
			}
		})
	})

	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for f := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				results <- p.ingestFile(gctx, f, strategy)
			}
			return nil
		})
	}

	summary := &Summary{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			summary.tally(res)
			if progress != nil {
				progress(res)
			}
		}
	}()

	err := g.Wait()
	close(results)
	<-done

	if flushErr := p.index.Flush(context.WithoutCancel(ctx)); flushErr != nil {
		p.logger.ErrorContext(ctx, "failed to flush similarity index after scan", "error", flushErr)
	}

	p.logger.InfoContext(ctx, "scan finished",
		"imported", summary.Imported, "updated", summary.Updated,
		"duplicates", summary.Duplicate, "failed", summary.Failed)
	return summary, err
}

func (s *Summary) tally(res Result) {
	switch res.Outcome {
	case OutcomeImported:
		s.Imported++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeDuplicate:
		s.Duplicate++
	case OutcomeFailed:
		s.Failed++
		s.Failures = append(s.Failures, res)
	}
}

// ingestFile processes one discovered file. The duplicate classification
// and the subsequent insert hold a per-hash lock, so two workers racing on
// copies of the same file classify deterministically and never double-insert
// a path.
func (p *Pipeline) ingestFile(ctx context.Context, f WalkedFile, strategy Strategy) Result {
	fp, err := p.engine.Compute(ctx, f.Path, f.Kind)
	if err != nil {
		p.recordErrored(ctx, f)
		return Result{Path: f.Path, Outcome: OutcomeFailed, Error: err.Error()}
	}

	unlock := p.hashLocks.lock(fp.ExactHash)
	defer unlock()

	byPath, err := p.assets.FindByPath(ctx, f.Path)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return Result{Path: f.Path, Outcome: OutcomeFailed, Error: err.Error()}
	}
	if byPath != nil {
		if byPath.ExactHash == fp.ExactHash && byPath.Status == catalog.StatusOK {
			// Unchanged since the last scan.
			return Result{Path: f.Path, Outcome: OutcomeDuplicate, AssetID: byPath.ID}
		}
		// Same path, new content (or a previously errored file that now
		// reads): refresh the record, keep the id.
		p.applyFingerprint(byPath, f, fp)
		stored, err := p.assets.Put(ctx, byPath)
		if err != nil {
			return Result{Path: f.Path, Outcome: OutcomeFailed, Error: err.Error()}
		}
		p.index.Add(stored.ID, stored.ExactHash, stored.PerceptualHash)
		return Result{Path: f.Path, Outcome: OutcomeUpdated, AssetID: stored.ID}
	}

	// New path. Byte-identical content elsewhere in the catalog is reported
	// as a duplicate but still cataloged, so both copies land in one cluster
	// and the review screen can offer the redundant one for trashing.
	outcome := OutcomeImported
	if _, err := p.assets.FindByExactHash(ctx, fp.ExactHash); err == nil {
		outcome = OutcomeDuplicate
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return Result{Path: f.Path, Outcome: OutcomeFailed, Error: err.Error()}
	}

	asset := &catalog.Asset{
		Path:     f.Path,
		FileName: filepath.Base(f.Path),
		Kind:     f.Kind,
		Tags:     []string{},
	}
	p.applyFingerprint(asset, f, fp)

	if strategy == StrategyManaged {
		primary, fallback := p.libraryDest(f, fp.ExactHash)
		// A managed re-scan walks the original source path again; the
		// catalog entry for its library copy is what makes that idempotent.
		for _, dest := range []string{primary, fallback} {
			if prior, err := p.assets.FindByPath(ctx, dest); err == nil && prior.ExactHash == fp.ExactHash {
				return Result{Path: f.Path, Outcome: OutcomeDuplicate, AssetID: prior.ID}
			}
		}
		dest := primary
		if _, err := os.Stat(dest); err == nil {
			dest = fallback
		}
		if err := p.copyOriginal(f, dest); err != nil {
			return Result{Path: f.Path, Outcome: OutcomeFailed, Error: err.Error()}
		}
		asset.Path = dest
	}

	stored, err := p.assets.Put(ctx, asset)
	if err != nil {
		return Result{Path: f.Path, Outcome: OutcomeFailed, Error: err.Error()}
	}
	p.index.Add(stored.ID, stored.ExactHash, stored.PerceptualHash)
	return Result{Path: f.Path, Outcome: outcome, AssetID: stored.ID}
}

func (p *Pipeline) applyFingerprint(asset *catalog.Asset, f WalkedFile, fp *fingerprint.Fingerprint) {
	asset.Size = f.Size
	asset.ModifiedAt = f.ModTime
	asset.ExactHash = fp.ExactHash
	asset.PerceptualHash = fp.PerceptualHash
	asset.Width = fp.Width
	asset.Height = fp.Height
	asset.Camera = fp.Camera
	asset.Lens = fp.Lens
	asset.ISO = fp.ISO
	asset.Status = catalog.StatusOK
	asset.CapturedAt = fp.CapturedAt
	if asset.CapturedAt.IsZero() {
		asset.CapturedAt = f.ModTime
	}
}

// recordErrored keeps a visible catalog record for a file that could not be
// fingerprinted, rather than dropping it silently. An asset that was healthy
// on a previous scan also leaves the similarity index; its stored hashes no
// longer describe the bytes on disk.
func (p *Pipeline) recordErrored(ctx context.Context, f WalkedFile) {
	asset, err := p.assets.FindByPath(ctx, f.Path)
	existed := err == nil
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			p.logger.ErrorContext(ctx, "failed to look up errored path", "path", f.Path, "error", err)
			return
		}
		asset = &catalog.Asset{
			Path:       f.Path,
			FileName:   filepath.Base(f.Path),
			Kind:       f.Kind,
			Size:       f.Size,
			ModifiedAt: f.ModTime,
			CapturedAt: f.ModTime,
			Tags:       []string{},
		}
	}
	asset.Status = catalog.StatusErrored
	if _, err := p.assets.Put(ctx, asset); err != nil {
		p.logger.ErrorContext(ctx, "failed to record errored asset", "path", f.Path, "error", err)
		return
	}
	if existed {
		p.index.Remove(asset.ID)
	}
}

// libraryDest returns the managed-storage path for a source file under a
// capture-year/month layout, plus the hash-prefixed fallback used when an
// unrelated file already holds the primary name.
func (p *Pipeline) libraryDest(f WalkedFile, exactHash string) (primary, fallback string) {
	destDir := filepath.Join(p.storageDir, f.ModTime.Format("2006"), f.ModTime.Format("01"))
	prefix := exactHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	primary = filepath.Join(destDir, filepath.Base(f.Path))
	fallback = filepath.Join(destDir, prefix+"_"+filepath.Base(f.Path))
	return primary, fallback
}

// copyOriginal copies the source file, bytes unchanged, to dest.
func (p *Pipeline) copyOriginal(f WalkedFile, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}

	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create library copy: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to copy into library: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to finalize library copy: %w", err)
	}
	_ = os.Chtimes(dest, f.ModTime, f.ModTime)
	return nil
}

// keyedMutex serializes work per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockRef
}

type lockRef struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockRef)
	}
	ref := k.locks[key]
	if ref == nil {
		ref = &lockRef{}
		k.locks[key] = ref
	}
	ref.refs++
	k.mu.Unlock()

	ref.Lock()
	return func() {
		ref.Unlock()
		k.mu.Lock()
		ref.refs--
		if ref.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
