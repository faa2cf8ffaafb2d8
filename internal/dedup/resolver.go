// Package dedup turns similarity clusters into keeper recommendations and
// executes the user's resolution decisions transactionally.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"lumina/internal/catalog"
)

// Decision is the per-asset verdict supplied to Resolve.
type Decision string

const (
	DecisionKeep  Decision = "keep"
	DecisionTrash Decision = "trash"
)

// Recommendation names the asset worth keeping in a cluster, the assets
// safe to trash, and the space that would be reclaimed. It is derived on
// demand, never stored.
type Recommendation struct {
	ClusterID string `json:"clusterId"`
	// MembershipHash must be echoed back to Resolve; it guards against the
	// cluster changing underneath the user's review.
	MembershipHash   string   `json:"membershipHash"`
	KeeperID         string   `json:"keeperId"`
	DeletableIDs     []string `json:"deletableIds"`
	ReclaimableBytes int64    `json:"reclaimableBytes"`
}

// indexRemover is the slice of the similarity index the resolver needs:
// trashed assets must leave the neighbor graph so clusters shrink.
type indexRemover interface {
	Remove(assetID string)
}

// Resolver computes keeper recommendations and applies resolutions.
type Resolver struct {
	assets   catalog.AssetStore
	clusters catalog.ClusterStore
	index    indexRemover
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(assets catalog.AssetStore, clusters catalog.ClusterStore, index indexRemover) *Resolver {
	return &Resolver{
		assets:   assets,
		clusters: clusters,
		index:    index,
		logger:   slog.Default(),
	}
}

// derivedName matches filenames that look like edited or duplicated copies
// of an original ("DSC_1000_edit.jpg", "Copy of DSC_1000.jpg",
// "DSC_1000 (1).jpg"). Used only as a late tie-breaker.
var derivedName = regexp.MustCompile(`(?i)(_edit|-edit|_copy|-copy|^copy[ _]of[ _]|\(\d+\)$|_export)`)

func looksDerived(fileName string) bool {
	base := fileName
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return derivedName.MatchString(base)
}

// Recommend computes the keeper for a cluster. Pure: no state changes.
// Returns ErrNothingToResolve when fewer than two members are still active.
//
// Tie-break chain, each criterion only applied when the previous one ties:
// highest pixel count, highest rating, most recent modification, original
// over derived-looking filename, lowest id.
func (r *Resolver) Recommend(ctx context.Context, clusterID string) (*Recommendation, error) {
	cluster, err := r.clusters.Get(ctx, clusterID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &StaleClusterError{ClusterID: clusterID, Reason: "cluster no longer exists"}
		}
		return nil, fmt.Errorf("failed to load cluster: %w", err)
	}

	var active []*catalog.Asset
	for _, m := range cluster.Members {
		asset, err := r.assets.Get(ctx, m.AssetID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load cluster member %s: %w", m.AssetID, err)
		}
		if asset.InTrash {
			continue
		}
		active = append(active, asset)
	}

	if len(active) < 2 {
		return nil, ErrNothingToResolve
	}

	sort.Slice(active, func(i, j int) bool {
		return keeperLess(active[i], active[j])
	})
	keeper := active[0]

	rec := &Recommendation{
		ClusterID:      cluster.ID,
		MembershipHash: cluster.MembershipHash,
		KeeperID:       keeper.ID,
	}
	for _, a := range active[1:] {
		rec.DeletableIDs = append(rec.DeletableIDs, a.ID)
		rec.ReclaimableBytes += a.Size
	}
	return rec, nil
}

// keeperLess reports whether a ranks ahead of b as the keeper.
func keeperLess(a, b *catalog.Asset) bool {
	if a.PixelCount() != b.PixelCount() {
		return a.PixelCount() > b.PixelCount()
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if !a.ModifiedAt.Equal(b.ModifiedAt) {
		return a.ModifiedAt.After(b.ModifiedAt)
	}
	aDerived, bDerived := looksDerived(a.FileName), looksDerived(b.FileName)
	if aDerived != bDerived {
		return !aDerived
	}
	return a.ID < b.ID
}

// Resolve applies explicit per-asset decisions to a cluster. Assets without
// a decision are kept. The trash transitions and the cluster's resolved
// status commit atomically: a failure on any asset aborts the whole
// resolution and the cluster stays unresolved.
//
// membershipHash must come from the Recommendation being acted on; a
// mismatch means membership drifted and yields a StaleClusterError instead
// of applying decisions to the wrong set.
func (r *Resolver) Resolve(ctx context.Context, clusterID string, decisions map[string]Decision, membershipHash string) error {
	cluster, err := r.clusters.Get(ctx, clusterID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return &StaleClusterError{ClusterID: clusterID, Reason: "cluster no longer exists"}
		}
		return fmt.Errorf("failed to load cluster: %w", err)
	}
	if cluster.Status == catalog.ClusterResolved {
		return &StaleClusterError{ClusterID: clusterID, Reason: "cluster is already resolved"}
	}
	if membershipHash != "" && membershipHash != cluster.MembershipHash {
		return &StaleClusterError{ClusterID: clusterID, Reason: "membership changed since recommendation"}
	}

	memberSet := make(map[string]struct{}, len(cluster.Members))
	for _, m := range cluster.Members {
		memberSet[m.AssetID] = struct{}{}
	}

	var trashIDs []string
	for assetID, decision := range decisions {
		if _, ok := memberSet[assetID]; !ok {
			return &StaleClusterError{ClusterID: clusterID, Reason: fmt.Sprintf("asset %s is not a member", assetID)}
		}
		switch decision {
		case DecisionKeep:
		case DecisionTrash:
			trashIDs = append(trashIDs, assetID)
		default:
			return fmt.Errorf("unknown decision %q for asset %s", decision, assetID)
		}
	}
	sort.Strings(trashIDs)

	// Verify every asset still exists before mutating anything, so a
	// vanished record surfaces as a ResolutionError with nothing applied.
	for _, id := range trashIDs {
		if _, err := r.assets.Get(ctx, id); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return &ResolutionError{ClusterID: clusterID, AssetID: id, Err: err}
			}
			return fmt.Errorf("failed to check asset %s: %w", id, err)
		}
	}

	if err := r.clusters.ApplyResolution(ctx, clusterID, trashIDs); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return &ResolutionError{ClusterID: clusterID, AssetID: missingAssetID(err, trashIDs), Err: err}
		}
		return fmt.Errorf("failed to apply resolution: %w", err)
	}

	if r.index != nil {
		for _, id := range trashIDs {
			r.index.Remove(id)
		}
	}

	r.logger.InfoContext(ctx, "resolved cluster", "cluster_id", clusterID, "trashed", len(trashIDs))
	return nil
}

// missingAssetID pulls the offending id out of an ApplyResolution error by
// matching against the ids we attempted.
func missingAssetID(err error, ids []string) string {
	msg := err.Error()
	for _, id := range ids {
		if strings.Contains(msg, id) {
			return id
		}
	}
	return ""
}
