package catalog

import "time"

// MediaKind discriminates the asset variant. Kind-specific fields on Asset
// (DurationSeconds) are only meaningful for the matching kind.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// ColorLabel is the fixed set of user-assignable color labels. The empty
// string means no label.
type ColorLabel string

const (
	LabelNone   ColorLabel = ""
	LabelRed    ColorLabel = "red"
	LabelBlue   ColorLabel = "blue"
	LabelGreen  ColorLabel = "green"
	LabelYellow ColorLabel = "yellow"
	LabelPurple ColorLabel = "purple"
)

// AssetStatus tracks whether fingerprinting succeeded for the asset.
// Errored assets stay in the catalog so failed imports are visible.
type AssetStatus string

const (
	StatusOK      AssetStatus = "ok"
	StatusErrored AssetStatus = "errored"
)

// Asset is one physical media file tracked by the library.
type Asset struct {
	ID       string     `json:"id"`
	Path     string     `json:"path"`
	FileName string     `json:"fileName"`
	Kind     MediaKind  `json:"kind"`
	Size     int64      `json:"size"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	// DurationSeconds is only set for video assets.
	DurationSeconds float64 `json:"durationSeconds,omitempty"`

	// ExactHash is the hex SHA-256 of the full file content. It is set once
	// at ingest and only changes when the file content itself changes.
	ExactHash string `json:"exactHash"`
	// PerceptualHash is a 64-bit difference hash of the visual content.
	// It is nil for assets without a decodable image (videos, errored files).
	PerceptualHash *uint64 `json:"perceptualHash,omitempty"`

	CapturedAt time.Time `json:"capturedAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Camera     string    `json:"camera,omitempty"`
	Lens       string    `json:"lens,omitempty"`
	ISO        int       `json:"iso,omitempty"`

	Rating   int        `json:"rating"`
	Favorite bool       `json:"favorite"`
	Label    ColorLabel `json:"label,omitempty"`
	Tags     []string   `json:"tags"`
	Notes    string     `json:"notes"`
	AlbumID  string     `json:"albumId,omitempty"`
	InTrash  bool       `json:"inTrash"`

	Status    AssetStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// PixelCount returns the total pixel resolution used for keeper ranking.
func (a *Asset) PixelCount() int64 {
	return int64(a.Width) * int64(a.Height)
}

// Album is a user-defined named grouping. An asset belongs to at most one
// album; membership lives on the asset record.
type Album struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClusterStatus is the review state of a similarity cluster.
type ClusterStatus string

const (
	ClusterUnresolved ClusterStatus = "unresolved"
	ClusterIgnored    ClusterStatus = "ignored"
	ClusterResolved   ClusterStatus = "resolved"
)

// ClusterMember is one asset inside a cluster with its similarity score
// relative to the cluster reference (1.0 = identical).
type ClusterMember struct {
	AssetID string  `json:"assetId"`
	Score   float64 `json:"score"`
}

// Cluster is a persisted group of visually near-identical assets.
// MembershipHash fingerprints the sorted member id set; it is the staleness
// token checked by dedup resolution.
type Cluster struct {
	ID             string          `json:"id"`
	Status         ClusterStatus   `json:"status"`
	MembershipHash string          `json:"membershipHash"`
	Members        []ClusterMember `json:"members"`
}

// FingerprintRow is the minimal projection the similarity index loads at
// startup so hashes never need recomputing across restarts.
type FingerprintRow struct {
	AssetID        string
	ExactHash      string
	PerceptualHash *uint64
}

// LibraryStats summarizes the catalog for the UI status footer.
type LibraryStats struct {
	AssetCount      int   `json:"assetCount"`
	TotalBytes      int64 `json:"totalBytes"`
	TrashCount      int   `json:"trashCount"`
	TrashBytes      int64 `json:"trashBytes"`
	ErroredCount    int   `json:"erroredCount"`
	UnresolvedCount int   `json:"unresolvedClusters"`
}
