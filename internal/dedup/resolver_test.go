package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"lumina/internal/catalog"
	"lumina/internal/catalog/mocks"
)

type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) Remove(assetID string) {
	f.removed = append(f.removed, assetID)
}

func clusterOf(memberIDs ...string) *catalog.Cluster {
	c := &catalog.Cluster{
		ID:             "c1",
		Status:         catalog.ClusterUnresolved,
		MembershipHash: "mh-1",
	}
	for _, id := range memberIDs {
		c.Members = append(c.Members, catalog.ClusterMember{AssetID: id, Score: 1.0})
	}
	return c
}

func member(id string, width, height, rating int, modified time.Time, fileName string) *catalog.Asset {
	return &catalog.Asset{
		ID:         id,
		Path:       "/photos/" + fileName,
		FileName:   fileName,
		Kind:       catalog.KindImage,
		Size:       2048,
		Width:      width,
		Height:     height,
		Rating:     rating,
		ModifiedAt: modified,
	}
}

func TestResolver_Recommend_KeeperOrdering(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	later := mtime.Add(time.Hour)

	tests := []struct {
		name       string
		assets     map[string]*catalog.Asset
		wantKeeper string
	}{
		{
			name: "highest pixel count wins",
			assets: map[string]*catalog.Asset{
				"a": member("a", 2000, 1500, 5, later, "small.jpg"),
				"b": member("b", 6000, 4000, 0, mtime, "big.jpg"),
			},
			wantKeeper: "b",
		},
		{
			name: "rating breaks pixel tie",
			assets: map[string]*catalog.Asset{
				"a": member("a", 4000, 3000, 2, later, "two-stars.jpg"),
				"b": member("b", 4000, 3000, 4, mtime, "four-stars.jpg"),
			},
			wantKeeper: "b",
		},
		{
			name: "most recent modification breaks rating tie",
			assets: map[string]*catalog.Asset{
				"a": member("a", 4000, 3000, 3, mtime, "older.jpg"),
				"b": member("b", 4000, 3000, 3, later, "newer.jpg"),
			},
			wantKeeper: "b",
		},
		{
			name: "original name beats derived copy",
			assets: map[string]*catalog.Asset{
				"a": member("a", 4000, 3000, 0, mtime, "DSC_1000_copy.jpg"),
				"b": member("b", 4000, 3000, 0, mtime, "DSC_1000.jpg"),
			},
			wantKeeper: "b",
		},
		{
			name: "lowest id is the final tiebreak",
			assets: map[string]*catalog.Asset{
				"a": member("a", 4000, 3000, 0, mtime, "x.jpg"),
				"b": member("b", 4000, 3000, 0, mtime, "y.jpg"),
			},
			wantKeeper: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			assets := mocks.NewMockAssetStore(ctrl)
			clusters := mocks.NewMockClusterStore(ctrl)

			var memberIDs []string
			for id := range tt.assets {
				memberIDs = append(memberIDs, id)
			}
			clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf(memberIDs...), nil)
			for id, a := range tt.assets {
				assets.EXPECT().Get(gomock.Any(), id).Return(a, nil)
			}

			r := NewResolver(assets, clusters, &fakeRemover{})
			rec, err := r.Recommend(context.Background(), "c1")
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if rec.KeeperID != tt.wantKeeper {
				t.Errorf("Recommend() keeper = %q, want %q", rec.KeeperID, tt.wantKeeper)
			}
			if len(rec.DeletableIDs) != len(tt.assets)-1 {
				t.Errorf("Recommend() deletable = %d ids, want %d", len(rec.DeletableIDs), len(tt.assets)-1)
			}
			if rec.MembershipHash != "mh-1" {
				t.Errorf("Recommend() membership hash = %q, want mh-1", rec.MembershipHash)
			}
		})
	}
}

func TestResolver_Recommend_ReclaimableBytes(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	keeper := member("a", 6000, 4000, 0, time.Time{}, "a.jpg")
	dupe := member("b", 2000, 1500, 0, time.Time{}, "b.jpg")
	dupe.Size = 12345

	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b"), nil)
	assets.EXPECT().Get(gomock.Any(), "a").Return(keeper, nil)
	assets.EXPECT().Get(gomock.Any(), "b").Return(dupe, nil)

	r := NewResolver(assets, clusters, &fakeRemover{})
	rec, err := r.Recommend(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.ReclaimableBytes != 12345 {
		t.Errorf("Recommend() reclaimable = %d, want 12345", rec.ReclaimableBytes)
	}
}

func TestResolver_Recommend_SkipsInactiveMembers(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	trashed := member("b", 4000, 3000, 0, time.Time{}, "b.jpg")
	trashed.InTrash = true

	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b", "gone"), nil)
	assets.EXPECT().Get(gomock.Any(), "a").Return(member("a", 4000, 3000, 0, time.Time{}, "a.jpg"), nil)
	assets.EXPECT().Get(gomock.Any(), "b").Return(trashed, nil)
	assets.EXPECT().Get(gomock.Any(), "gone").Return(nil, catalog.ErrNotFound)

	r := NewResolver(assets, clusters, &fakeRemover{})
	_, err := r.Recommend(context.Background(), "c1")
	if !errors.Is(err, ErrNothingToResolve) {
		t.Errorf("Recommend() error = %v, want ErrNothingToResolve", err)
	}
}

func TestResolver_Recommend_MissingCluster(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	clusters.EXPECT().Get(gomock.Any(), "gone").Return(nil, catalog.ErrNotFound)

	r := NewResolver(assets, clusters, &fakeRemover{})
	_, err := r.Recommend(context.Background(), "gone")
	var stale *StaleClusterError
	if !errors.As(err, &stale) {
		t.Fatalf("Recommend() error = %v, want StaleClusterError", err)
	}
	if stale.ClusterID != "gone" {
		t.Errorf("StaleClusterError cluster = %q, want gone", stale.ClusterID)
	}
}

func TestResolver_Resolve_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)
	remover := &fakeRemover{}

	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b", "c"), nil)
	assets.EXPECT().Get(gomock.Any(), "b").Return(member("b", 100, 100, 0, time.Time{}, "b.jpg"), nil)
	assets.EXPECT().Get(gomock.Any(), "c").Return(member("c", 100, 100, 0, time.Time{}, "c.jpg"), nil)
	clusters.EXPECT().ApplyResolution(gomock.Any(), "c1", []string{"b", "c"}).Return(nil)

	r := NewResolver(assets, clusters, remover)
	decisions := map[string]Decision{
		"a": DecisionKeep,
		"b": DecisionTrash,
		"c": DecisionTrash,
	}
	if err := r.Resolve(context.Background(), "c1", decisions, "mh-1"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(remover.removed) != 2 {
		t.Errorf("index removals = %v, want b and c", remover.removed)
	}
}

func TestResolver_Resolve_StaleMembershipHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	// ApplyResolution must never run for a stale hash; the controller fails
	// the test on any unexpected call.
	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b"), nil)

	r := NewResolver(assets, clusters, &fakeRemover{})
	err := r.Resolve(context.Background(), "c1", map[string]Decision{"b": DecisionTrash}, "outdated-hash")
	var stale *StaleClusterError
	if !errors.As(err, &stale) {
		t.Fatalf("Resolve() error = %v, want StaleClusterError", err)
	}
}

func TestResolver_Resolve_AlreadyResolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	done := clusterOf("a", "b")
	done.Status = catalog.ClusterResolved
	clusters.EXPECT().Get(gomock.Any(), "c1").Return(done, nil)

	r := NewResolver(assets, clusters, &fakeRemover{})
	err := r.Resolve(context.Background(), "c1", map[string]Decision{"b": DecisionTrash}, "mh-1")
	var stale *StaleClusterError
	if !errors.As(err, &stale) {
		t.Fatalf("Resolve() error = %v, want StaleClusterError", err)
	}
}

func TestResolver_Resolve_NonMemberDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b"), nil)

	r := NewResolver(assets, clusters, &fakeRemover{})
	err := r.Resolve(context.Background(), "c1", map[string]Decision{"intruder": DecisionTrash}, "mh-1")
	var stale *StaleClusterError
	if !errors.As(err, &stale) {
		t.Fatalf("Resolve() error = %v, want StaleClusterError", err)
	}
}

func TestResolver_Resolve_MissingAssetMutatesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)
	remover := &fakeRemover{}

	// The pre-check finds the vanished asset; ApplyResolution never runs and
	// the index is left alone.
	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b"), nil)
	assets.EXPECT().Get(gomock.Any(), "b").Return(nil, catalog.ErrNotFound)

	r := NewResolver(assets, clusters, remover)
	err := r.Resolve(context.Background(), "c1", map[string]Decision{"b": DecisionTrash}, "mh-1")
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("Resolve() error = %v, want ResolutionError", err)
	}
	if resErr.AssetID != "b" {
		t.Errorf("ResolutionError asset = %q, want b", resErr.AssetID)
	}
	if len(remover.removed) != 0 {
		t.Errorf("index removals = %v, want none", remover.removed)
	}
}

func TestResolver_Resolve_UnknownDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	assets := mocks.NewMockAssetStore(ctrl)
	clusters := mocks.NewMockClusterStore(ctrl)

	clusters.EXPECT().Get(gomock.Any(), "c1").Return(clusterOf("a", "b"), nil)

	r := NewResolver(assets, clusters, &fakeRemover{})
	if err := r.Resolve(context.Background(), "c1", map[string]Decision{"b": "shred"}, "mh-1"); err == nil {
		t.Error("Resolve() with unknown decision expected error, got nil")
	}
}

func TestLooksDerived(t *testing.T) {
	tests := []struct {
		fileName string
		want     bool
	}{
		{"DSC_1000.jpg", false},
		{"DSC_1000_edit.jpg", true},
		{"DSC_1000-edit.jpg", true},
		{"DSC_1000_copy.jpg", true},
		{"Copy of DSC_1000.jpg", true},
		{"DSC_1000 (1).jpg", true},
		{"DSC_1000_export.jpg", true},
		{"edits-2024.jpg", false},
		{"holiday.jpg", false},
	}
	for _, tt := range tests {
		if got := looksDerived(tt.fileName); got != tt.want {
			t.Errorf("looksDerived(%q) = %v, want %v", tt.fileName, got, tt.want)
		}
	}
}
