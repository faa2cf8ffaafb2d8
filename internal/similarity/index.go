// Package similarity maintains clusters of visually near-identical assets.
//
// Assets are nodes; an edge exists when two perceptual hashes are within the
// configured Hamming-distance threshold, or when two exact hashes are equal
// (byte-identical files always cluster together regardless of perceptual
// distance). Clusters are the connected components of that graph, so
// transitive chains are allowed: A~B and B~C put A and C in one cluster
// even when A and C individually exceed the threshold.
package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/bits"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina/internal/catalog"
)

// DefaultThreshold is the maximum Hamming distance (out of 64 bits) at
// which two perceptual hashes count as similar. Matches the dedup
// threshold the difference hash was tuned against.
const DefaultThreshold = 10

// hashBits is the perceptual hash width.
const hashBits = 64

// Band bucketing: the 64-bit hash is split into 16 bands of 4 bits. Any two
// hashes within Hamming distance 15 share at least one identical band, so
// looking up each band's bucket yields a complete candidate set for any
// threshold up to 15 without comparing against the whole library.
const (
	bandCount = 16
	bandBits  = 4
)

// Index is the incremental similarity index. Add/Remove update the
// neighbor graph immediately; cluster persistence is batched through
// Flush, so a newly ingested asset appears in a cluster within one
// indexing cycle.
type Index struct {
	mu        sync.Mutex
	threshold int
	clusters  catalog.ClusterStore
	logger    *slog.Logger

	phashes map[string]uint64
	exact   map[string]string
	// exactGroups maps an exact hash to the ids sharing it.
	exactGroups map[string]map[string]struct{}
	bands       [bandCount]map[uint8]map[string]struct{}
	edges       map[string]map[string]struct{}
	dirty       bool
}

// New creates an Index persisting through the given cluster store.
// threshold <= 0 selects DefaultThreshold; values above 15 are rejected
// because band bucketing no longer guarantees complete candidate recall.
func New(clusters catalog.ClusterStore, threshold int) (*Index, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold > bandCount-1 {
		return nil, fmt.Errorf("similarity threshold %d exceeds maximum %d", threshold, bandCount-1)
	}
	ix := &Index{
		threshold:   threshold,
		clusters:    clusters,
		logger:      slog.Default(),
		phashes:     make(map[string]uint64),
		exact:       make(map[string]string),
		exactGroups: make(map[string]map[string]struct{}),
		edges:       make(map[string]map[string]struct{}),
	}
	for i := range ix.bands {
		ix.bands[i] = make(map[uint8]map[string]struct{})
	}
	return ix, nil
}

// Load bulk-adds persisted fingerprints without marking the index dirty
// unless the loaded set produces clusters. Called once at startup so hashes
// are never recomputed from files.
func (ix *Index) Load(rows []catalog.FingerprintRow) {
	for _, row := range rows {
		ix.Add(row.AssetID, row.ExactHash, row.PerceptualHash)
	}
}

// Add registers an asset's hashes and links it to its near neighbors.
// perceptualHash may be nil (videos cluster by exact hash only).
func (ix *Index) Add(assetID, exactHash string, perceptualHash *uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.exact[assetID]; exists {
		ix.removeLocked(assetID)
	}

	neighbors := make(map[string]struct{})

	if exactHash != "" {
		for id := range ix.exactGroups[exactHash] {
			neighbors[id] = struct{}{}
		}
		if ix.exactGroups[exactHash] == nil {
			ix.exactGroups[exactHash] = make(map[string]struct{})
		}
		ix.exactGroups[exactHash][assetID] = struct{}{}
		ix.exact[assetID] = exactHash
	}

	if perceptualHash != nil {
		h := *perceptualHash
		for id := range ix.candidatesLocked(h) {
			if id == assetID {
				continue
			}
			if hamming(h, ix.phashes[id]) <= ix.threshold {
				neighbors[id] = struct{}{}
			}
		}
		ix.phashes[assetID] = h
		for i := 0; i < bandCount; i++ {
			key := bandKey(h, i)
			bucket := ix.bands[i][key]
			if bucket == nil {
				bucket = make(map[string]struct{})
				ix.bands[i][key] = bucket
			}
			bucket[assetID] = struct{}{}
		}
	}

	for id := range neighbors {
		ix.linkLocked(assetID, id)
	}
	if len(neighbors) > 0 {
		ix.dirty = true
	}
}

// Remove drops an asset from the index, dissolving its edges. Called when
// an asset is trashed, purged, or resolved away.
func (ix *Index) Remove(assetID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(assetID)
}

func (ix *Index) removeLocked(assetID string) {
	if exact, ok := ix.exact[assetID]; ok {
		delete(ix.exactGroups[exact], assetID)
		if len(ix.exactGroups[exact]) == 0 {
			delete(ix.exactGroups, exact)
		}
		delete(ix.exact, assetID)
	}
	if h, ok := ix.phashes[assetID]; ok {
		for i := 0; i < bandCount; i++ {
			key := bandKey(h, i)
			delete(ix.bands[i][key], assetID)
			if len(ix.bands[i][key]) == 0 {
				delete(ix.bands[i], key)
			}
		}
		delete(ix.phashes, assetID)
	}
	if peers, ok := ix.edges[assetID]; ok {
		for peer := range peers {
			delete(ix.edges[peer], assetID)
			if len(ix.edges[peer]) == 0 {
				delete(ix.edges, peer)
			}
		}
		delete(ix.edges, assetID)
		ix.dirty = true
	}
}

func (ix *Index) linkLocked(a, b string) {
	if ix.edges[a] == nil {
		ix.edges[a] = make(map[string]struct{})
	}
	if ix.edges[b] == nil {
		ix.edges[b] = make(map[string]struct{})
	}
	ix.edges[a][b] = struct{}{}
	ix.edges[b][a] = struct{}{}
}

// candidatesLocked returns every asset sharing at least one band with h.
func (ix *Index) candidatesLocked(h uint64) map[string]struct{} {
	out := make(map[string]struct{})
	for i := 0; i < bandCount; i++ {
		for id := range ix.bands[i][bandKey(h, i)] {
			out[id] = struct{}{}
		}
	}
	return out
}

func bandKey(h uint64, band int) uint8 {
	return uint8((h >> (uint(band) * bandBits)) & (1<<bandBits - 1))
}

func hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Flush persists the current connected components, preserving the id and
// status of clusters whose membership has not changed. No-op when nothing
// changed since the last flush.
func (ix *Index) Flush(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.dirty {
		return nil
	}

	components := ix.componentsLocked()

	existing, err := ix.clusters.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load existing clusters: %w", err)
	}
	byHash := make(map[string]*catalog.Cluster, len(existing))
	for _, c := range existing {
		byHash[c.MembershipHash] = c
	}

	var snapshot []*catalog.Cluster
	for _, members := range components {
		cluster := ix.buildClusterLocked(members)
		if prev, ok := byHash[cluster.MembershipHash]; ok {
			if prev.Status == catalog.ClusterResolved {
				// Already resolved with identical membership; keep the
				// historical row, do not resurrect it.
				continue
			}
			cluster.ID = prev.ID
			cluster.Status = prev.Status
		}
		snapshot = append(snapshot, cluster)
	}

	if err := ix.clusters.ReplaceActive(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist clusters: %w", err)
	}
	ix.dirty = false
	ix.logger.DebugContext(ctx, "similarity index flushed", "clusters", len(snapshot))
	return nil
}

// componentsLocked returns the connected components with two or more
// members. Singleton assets are not clusters.
func (ix *Index) componentsLocked() [][]string {
	visited := make(map[string]struct{})
	var components [][]string

	nodes := make([]string, 0, len(ix.edges))
	for id := range ix.edges {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	for _, start := range nodes {
		if _, seen := visited[start]; seen {
			continue
		}
		var component []string
		queue := []string{start}
		visited[start] = struct{}{}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			component = append(component, id)
			for peer := range ix.edges[id] {
				if _, seen := visited[peer]; !seen {
					visited[peer] = struct{}{}
					queue = append(queue, peer)
				}
			}
		}
		if len(component) >= 2 {
			sort.Strings(component)
			components = append(components, component)
		}
	}
	return components
}

// buildClusterLocked scores members against the cluster reference (the
// lowest-id member, deterministic across rebuilds).
func (ix *Index) buildClusterLocked(members []string) *catalog.Cluster {
	ref := members[0]
	refHash, refHasPHash := ix.phashes[ref]
	refExact := ix.exact[ref]

	cluster := &catalog.Cluster{
		ID:             uuid.New().String(),
		Status:         catalog.ClusterUnresolved,
		MembershipHash: MembershipHash(members),
	}
	for _, id := range members {
		score := 0.0
		switch {
		case id == ref:
			score = 1.0
		case refExact != "" && ix.exact[id] == refExact:
			score = 1.0
		default:
			if h, ok := ix.phashes[id]; ok && refHasPHash {
				score = 1.0 - float64(hamming(refHash, h))/hashBits
			}
		}
		cluster.Members = append(cluster.Members, catalog.ClusterMember{AssetID: id, Score: score})
	}
	return cluster
}

// MembershipHash fingerprints a sorted member id set. Resolution uses it to
// detect clusters whose membership drifted since a recommendation was
// computed.
func MembershipHash(sortedIDs []string) string {
	h := sha256.New()
	for _, id := range sortedIDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RebuildAll discards the in-memory graph and re-indexes the given
// fingerprints from scratch, then persists. This is the "re-scan all"
// operation; per-asset updates never pay this cost.
func (ix *Index) RebuildAll(ctx context.Context, rows []catalog.FingerprintRow) error {
	ix.mu.Lock()
	ix.phashes = make(map[string]uint64)
	ix.exact = make(map[string]string)
	ix.exactGroups = make(map[string]map[string]struct{})
	for i := range ix.bands {
		ix.bands[i] = make(map[uint8]map[string]struct{})
	}
	ix.edges = make(map[string]map[string]struct{})
	ix.dirty = true
	ix.mu.Unlock()

	for _, row := range rows {
		ix.Add(row.AssetID, row.ExactHash, row.PerceptualHash)
	}
	return ix.Flush(ctx)
}

// ListClusters returns persisted clusters, optionally filtered by status.
func (ix *Index) ListClusters(ctx context.Context, status catalog.ClusterStatus) ([]*catalog.Cluster, error) {
	return ix.clusters.List(ctx, status)
}

// Ignore marks a cluster ignored so it drops out of active review without
// deleting anything.
func (ix *Index) Ignore(ctx context.Context, clusterID string) error {
	return ix.clusters.SetStatus(ctx, clusterID, catalog.ClusterIgnored)
}

// Run flushes pending index changes on a fixed cycle until ctx is done.
func (ix *Index) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ix.Flush(ctx); err != nil {
				ix.logger.ErrorContext(ctx, "similarity flush failed", "error", err)
			}
		}
	}
}
