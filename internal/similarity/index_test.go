package similarity

import (
	"context"
	"testing"

	"lumina/internal/catalog"
)

// memClusterStore mirrors the SQLite cluster store semantics in memory:
// ReplaceActive keeps resolved rows as history and swaps everything else.
type memClusterStore struct {
	clusters map[string]*catalog.Cluster
}

func newMemClusterStore() *memClusterStore {
	return &memClusterStore{clusters: make(map[string]*catalog.Cluster)}
}

func (s *memClusterStore) ReplaceActive(_ context.Context, clusters []*catalog.Cluster) error {
	for id, c := range s.clusters {
		if c.Status != catalog.ClusterResolved {
			delete(s.clusters, id)
		}
	}
	for _, c := range clusters {
		s.clusters[c.ID] = c
	}
	return nil
}

func (s *memClusterStore) List(_ context.Context, status catalog.ClusterStatus) ([]*catalog.Cluster, error) {
	var out []*catalog.Cluster
	for _, c := range s.clusters {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memClusterStore) Get(_ context.Context, id string) (*catalog.Cluster, error) {
	c, ok := s.clusters[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return c, nil
}

func (s *memClusterStore) SetStatus(_ context.Context, id string, status catalog.ClusterStatus) error {
	c, ok := s.clusters[id]
	if !ok {
		return catalog.ErrNotFound
	}
	c.Status = status
	return nil
}

func (s *memClusterStore) ApplyResolution(_ context.Context, clusterID string, _ []string) error {
	return s.SetStatus(context.Background(), clusterID, catalog.ClusterResolved)
}

func phash(v uint64) *uint64 {
	return &v
}

// withBits returns base with the lowest n bits flipped, so the Hamming
// distance from base is exactly n.
func withBits(base uint64, n int) uint64 {
	return base ^ (1<<uint(n) - 1)
}

func flushed(t *testing.T, ix *Index, store *memClusterStore) []*catalog.Cluster {
	t.Helper()
	if err := ix.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	clusters, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return clusters
}

func TestNew_RejectsThresholdBeyondBandGuarantee(t *testing.T) {
	if _, err := New(newMemClusterStore(), 16); err == nil {
		t.Error("New(16) expected error, got nil")
	}
	ix, err := New(newMemClusterStore(), 0)
	if err != nil {
		t.Fatalf("New(0) error = %v", err)
	}
	if ix.threshold != DefaultThreshold {
		t.Errorf("New(0) threshold = %d, want default %d", ix.threshold, DefaultThreshold)
	}
}

func TestIndex_ClustersWithinThreshold(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	base := uint64(0x1234567890ABCDEF)
	ix.Add("a", "hash-a", phash(base))
	ix.Add("b", "hash-b", phash(withBits(base, 5)))
	ix.Add("far", "hash-far", phash(^base))

	clusters := flushed(t, ix, store)
	if len(clusters) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Errorf("cluster has %d members, want a and b", len(clusters[0].Members))
	}
}

func TestIndex_TransitiveChain(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// dist(a,b) = 8 and dist(b,c) = 6, but dist(a,c) = 14 > threshold.
	// Connected components still put all three in one cluster.
	base := uint64(0xF0F0F0F0F0F0F0F0)
	a := base
	b := base ^ 0xFF          // flips 8 bits
	c := base ^ 0xFF ^ 0x3F00 // flips 6 more
	if got := hamming(a, c); got != 14 {
		t.Fatalf("test setup: hamming(a, c) = %d, want 14", got)
	}

	ix.Add("a", "ha", phash(a))
	ix.Add("b", "hb", phash(b))
	ix.Add("c", "hc", phash(c))

	clusters := flushed(t, ix, store)
	if len(clusters) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(clusters))
	}
	if len(clusters[0].Members) != 3 {
		t.Errorf("chain cluster has %d members, want 3", len(clusters[0].Members))
	}
}

func TestIndex_ExactHashAlwaysClusters(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Identical bytes, wildly different perceptual hashes: still one cluster.
	ix.Add("a", "same-bytes", phash(0))
	ix.Add("b", "same-bytes", phash(^uint64(0)))

	// Videos carry no perceptual hash at all and still pair up by content.
	ix.Add("v1", "same-video", nil)
	ix.Add("v2", "same-video", nil)

	clusters := flushed(t, ix, store)
	if len(clusters) != 2 {
		t.Fatalf("Flush() produced %d clusters, want 2", len(clusters))
	}
	for _, c := range clusters {
		if len(c.Members) != 2 {
			t.Errorf("cluster %s has %d members, want 2", c.ID, len(c.Members))
		}
	}
}

func TestIndex_SingletonsAreNotClusters(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ix.Add("lonely", "h1", phash(0))
	ix.Add("also-lonely", "h2", phash(^uint64(0)))

	if err := ix.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(store.clusters) != 0 {
		t.Errorf("store holds %d clusters, want 0", len(store.clusters))
	}
}

func TestIndex_RemoveDissolvesCluster(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ix.Add("a", "same", nil)
	ix.Add("b", "same", nil)
	if got := flushed(t, ix, store); len(got) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(got))
	}

	ix.Remove("b")
	if got := flushed(t, ix, store); len(got) != 0 {
		t.Errorf("Flush() after Remove produced %d clusters, want 0", len(got))
	}
}

func TestIndex_StableIdentityAcrossFlushes(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ix.Add("a", "same", nil)
	ix.Add("b", "same", nil)
	first := flushed(t, ix, store)
	if len(first) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(first))
	}
	originalID := first[0].ID

	if err := store.SetStatus(context.Background(), originalID, catalog.ClusterIgnored); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	// An unrelated addition dirties the index; the unchanged cluster must
	// keep its id and ignored status through the next flush.
	ix.Add("x", "other", nil)
	ix.Add("y", "other", nil)
	second := flushed(t, ix, store)
	if len(second) != 2 {
		t.Fatalf("Flush() produced %d clusters, want 2", len(second))
	}

	kept, err := store.Get(context.Background(), originalID)
	if err != nil {
		t.Fatalf("Get() original cluster error = %v", err)
	}
	if kept.Status != catalog.ClusterIgnored {
		t.Errorf("cluster status = %q after flush, want ignored", kept.Status)
	}
}

func TestIndex_ResolvedClusterNotResurrected(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ix.Add("a", "same", nil)
	ix.Add("b", "same", nil)
	first := flushed(t, ix, store)
	if len(first) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(first))
	}
	if err := store.SetStatus(context.Background(), first[0].ID, catalog.ClusterResolved); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	// Same membership re-emerges; the resolved history row stands alone.
	ix.Add("x", "other", nil)
	ix.Add("y", "other", nil)
	if err := ix.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	resolved, err := store.List(context.Background(), catalog.ClusterResolved)
	if err != nil {
		t.Fatalf("List(resolved) error = %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("List(resolved) = %d clusters, want 1", len(resolved))
	}

	unresolved, err := store.List(context.Background(), catalog.ClusterUnresolved)
	if err != nil {
		t.Fatalf("List(unresolved) error = %v", err)
	}
	if len(unresolved) != 1 {
		t.Errorf("List(unresolved) = %d clusters, want only the new pair", len(unresolved))
	}
	for _, c := range unresolved {
		for _, m := range c.Members {
			if m.AssetID == "a" || m.AssetID == "b" {
				t.Errorf("resolved membership resurrected as unresolved cluster %s", c.ID)
			}
		}
	}
}

func TestIndex_ScoresAgainstReference(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	base := uint64(0xAAAAAAAAAAAAAAAA)
	ix.Add("a", "ha", phash(base))
	ix.Add("b", "hb", phash(withBits(base, 8)))

	clusters := flushed(t, ix, store)
	if len(clusters) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(clusters))
	}

	scores := make(map[string]float64)
	for _, m := range clusters[0].Members {
		scores[m.AssetID] = m.Score
	}
	if scores["a"] != 1.0 {
		t.Errorf("reference score = %v, want 1.0", scores["a"])
	}
	want := 1.0 - 8.0/64.0
	if scores["b"] != want {
		t.Errorf("member score = %v, want %v", scores["b"], want)
	}
}

func TestIndex_RebuildAll(t *testing.T) {
	store := newMemClusterStore()
	ix, err := New(store, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ix.Add("a", "same", nil)
	ix.Add("b", "same", nil)
	if got := flushed(t, ix, store); len(got) != 1 {
		t.Fatalf("Flush() produced %d clusters, want 1", len(got))
	}

	// Rebuild from a fingerprint set where the pair no longer exists.
	rows := []catalog.FingerprintRow{
		{AssetID: "a", ExactHash: "now-unique"},
		{AssetID: "c", ExactHash: "other"},
	}
	if err := ix.RebuildAll(context.Background(), rows); err != nil {
		t.Fatalf("RebuildAll() error = %v", err)
	}
	if len(store.clusters) != 0 {
		t.Errorf("store holds %d clusters after rebuild, want 0", len(store.clusters))
	}
}

func TestMembershipHash(t *testing.T) {
	h1 := MembershipHash([]string{"a", "b"})
	h2 := MembershipHash([]string{"a", "b"})
	if h1 != h2 {
		t.Error("MembershipHash() not deterministic")
	}
	if MembershipHash([]string{"a", "b"}) == MembershipHash([]string{"a", "b", "c"}) {
		t.Error("MembershipHash() collided across different member sets")
	}
	// Separator keeps concatenation ambiguity out of the hash.
	if MembershipHash([]string{"ab"}) == MembershipHash([]string{"a", "b"}) {
		t.Error("MembershipHash() collided on concatenated ids")
	}
}
