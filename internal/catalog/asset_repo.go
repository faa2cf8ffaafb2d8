package catalog

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_asset_store.go -package=mocks lumina/internal/catalog AssetStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// AssetStore defines the interface for asset storage operations.
type AssetStore interface {
	// Put inserts a new asset or updates an existing one by id, enforcing
	// rating bounds and label values. It returns the stored record.
	Put(ctx context.Context, asset *Asset) (*Asset, error)
	// Update loads the asset, applies mutate, and writes the result inside
	// one transaction. Concurrent updates to the same asset serialize, so
	// neither edit is lost.
	Update(ctx context.Context, id string, mutate func(*Asset) error) (*Asset, error)
	// Get returns the asset with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Asset, error)
	// Delete hard-deletes an asset. Only purge and dedup resolution call
	// this; ordinary removal goes through SetTrashed.
	Delete(ctx context.Context, id string) error
	// Query returns a page of assets matching the filter.
	Query(ctx context.Context, filter AssetFilter, sort AssetSort, page Page) ([]*Asset, error)
	// Count returns the number of assets matching the filter.
	Count(ctx context.Context, filter AssetFilter) (int, error)
	// FindByExactHash returns the asset with the given content hash, or
	// ErrNotFound. Backed by the exact-hash index.
	FindByExactHash(ctx context.Context, hash string) (*Asset, error)
	// FindByPath returns the asset at the given path, or ErrNotFound.
	FindByPath(ctx context.Context, path string) (*Asset, error)
	// SetTrashed flips the soft-delete flag.
	SetTrashed(ctx context.Context, id string, trashed bool) error
	// PurgeTrash hard-deletes every trashed asset and returns the ids removed.
	PurgeTrash(ctx context.Context) ([]string, error)
	// ListFingerprints returns the persisted hashes of all active assets so
	// the similarity index can rebuild without re-reading any file.
	ListFingerprints(ctx context.Context) ([]FingerprintRow, error)
	// Stats summarizes the catalog.
	Stats(ctx context.Context) (*LibraryStats, error)
}

// AssetRepo implements AssetStore on SQLite.
type AssetRepo struct {
	db *DB
}

// NewAssetRepo creates a new AssetRepo.
func NewAssetRepo(db *DB) *AssetRepo {
	return &AssetRepo{db: db}
}

const assetColumns = `id, path, file_name, kind, size, width, height, duration_seconds,
	exact_hash, perceptual_hash, captured_at, modified_at, camera, lens, iso,
	rating, favorite, label, tags, notes, album_id, in_trash, status, created_at, updated_at`

func validateAsset(a *Asset) error {
	if a.Rating < 0 || a.Rating > 5 {
		return &ValidationError{Field: "rating", Message: fmt.Sprintf("must be between 0 and 5, got %d", a.Rating)}
	}
	switch a.Label {
	case LabelNone, LabelRed, LabelBlue, LabelGreen, LabelYellow, LabelPurple:
	default:
		return &ValidationError{Field: "label", Message: fmt.Sprintf("unknown label %q", a.Label)}
	}
	switch a.Kind {
	case KindImage, KindVideo:
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", a.Kind)}
	}
	if a.Path == "" {
		return &ValidationError{Field: "path", Message: "must not be empty"}
	}
	return nil
}

// Put inserts or updates an asset. New assets (empty id) get a UUID that is
// never reused. The whole write runs in one immediate transaction so
// concurrent edits to the same asset never interleave.
func (r *AssetRepo) Put(ctx context.Context, asset *Asset) (*Asset, error) {
	if err := validateAsset(asset); err != nil {
		return nil, err
	}
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}
	if asset.Tags == nil {
		asset.Tags = []string{}
	}
	tagsJSON, err := json.Marshal(asset.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	var phash any
	if asset.PerceptualHash != nil {
		phash = int64(*asset.PerceptualHash)
	}
	var albumID any
	if asset.AlbumID != "" {
		albumID = asset.AlbumID
	}
	if asset.Status == "" {
		asset.Status = StatusOK
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assets (id, path, file_name, kind, size, width, height, duration_seconds,
			exact_hash, perceptual_hash, captured_at, modified_at, camera, lens, iso,
			rating, favorite, label, tags, notes, album_id, in_trash, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			path = excluded.path, file_name = excluded.file_name, kind = excluded.kind,
			size = excluded.size, width = excluded.width, height = excluded.height,
			duration_seconds = excluded.duration_seconds, exact_hash = excluded.exact_hash,
			perceptual_hash = excluded.perceptual_hash, captured_at = excluded.captured_at,
			modified_at = excluded.modified_at, camera = excluded.camera, lens = excluded.lens,
			iso = excluded.iso, rating = excluded.rating, favorite = excluded.favorite,
			label = excluded.label, tags = excluded.tags, notes = excluded.notes,
			album_id = excluded.album_id, in_trash = excluded.in_trash,
			status = excluded.status, updated_at = excluded.updated_at`,
		asset.ID, asset.Path, asset.FileName, string(asset.Kind), asset.Size,
		asset.Width, asset.Height, asset.DurationSeconds, asset.ExactHash, phash,
		asset.CapturedAt, asset.ModifiedAt, asset.Camera, asset.Lens, asset.ISO,
		asset.Rating, asset.Favorite, string(asset.Label), string(tagsJSON), asset.Notes,
		albumID, asset.InTrash, string(asset.Status), now, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, &ValidationError{Field: "albumId", Message: fmt.Sprintf("album %q does not exist", asset.AlbumID)}
		}
		return nil, fmt.Errorf("failed to put asset: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit asset: %w", err)
	}

	return r.Get(ctx, asset.ID)
}

// Update applies mutate to the stored asset inside a single immediate
// transaction. The read and the write hold the database write lock
// together, so two concurrent edits to the same asset (say a rating change
// racing a tag change) both land instead of the later one clobbering the
// earlier.
func (r *AssetRepo) Update(ctx context.Context, id string, mutate func(*Asset) error) (*Asset, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	asset, err := scanAsset(row)
	if err != nil {
		return nil, err
	}

	if err := mutate(asset); err != nil {
		return nil, err
	}
	if err := validateAsset(asset); err != nil {
		return nil, err
	}
	if asset.Tags == nil {
		asset.Tags = []string{}
	}
	tagsJSON, err := json.Marshal(asset.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	var phash any
	if asset.PerceptualHash != nil {
		phash = int64(*asset.PerceptualHash)
	}
	var albumID any
	if asset.AlbumID != "" {
		albumID = asset.AlbumID
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assets SET
			path = ?, file_name = ?, kind = ?, size = ?, width = ?, height = ?,
			duration_seconds = ?, exact_hash = ?, perceptual_hash = ?,
			captured_at = ?, modified_at = ?, camera = ?, lens = ?, iso = ?,
			rating = ?, favorite = ?, label = ?, tags = ?, notes = ?,
			album_id = ?, in_trash = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		asset.Path, asset.FileName, string(asset.Kind), asset.Size,
		asset.Width, asset.Height, asset.DurationSeconds, asset.ExactHash, phash,
		asset.CapturedAt, asset.ModifiedAt, asset.Camera, asset.Lens, asset.ISO,
		asset.Rating, asset.Favorite, string(asset.Label), string(tagsJSON), asset.Notes,
		albumID, asset.InTrash, string(asset.Status), time.Now().UTC(), id,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, &ValidationError{Field: "albumId", Message: fmt.Sprintf("album %q does not exist", asset.AlbumID)}
		}
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return r.Get(ctx, id)
}

// The only foreign key on assets is album_id, so a constraint failure on an
// asset write always means a bad album reference.
func isForeignKeyViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// Get returns the asset with the given id, or ErrNotFound.
func (r *AssetRepo) Get(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	return scanAsset(row)
}

// FindByExactHash returns the asset with the given content hash, or
// ErrNotFound. Used at ingest time for exact-duplicate detection.
func (r *AssetRepo) FindByExactHash(ctx context.Context, hash string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE exact_hash = ? AND exact_hash != '' LIMIT 1", hash)
	return scanAsset(row)
}

// FindByPath returns the asset stored at the given filesystem path.
func (r *AssetRepo) FindByPath(ctx context.Context, path string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE path = ?", path)
	return scanAsset(row)
}

// Delete hard-deletes an asset.
func (r *AssetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTrashed flips the soft-delete flag on an asset.
func (r *AssetRepo) SetTrashed(ctx context.Context, id string, trashed bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE assets SET in_trash = ?, updated_at = ? WHERE id = ?",
		trashed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update trash flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check trash update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeTrash permanently deletes every trashed asset. This is the only bulk
// hard-delete path; trashing itself is always reversible.
func (r *AssetRepo) PurgeTrash(ctx context.Context) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purge: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM assets WHERE in_trash = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed assets: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan trashed asset id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	_ = rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE in_trash = 1"); err != nil {
		return nil, fmt.Errorf("failed to purge trash: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}
	return ids, nil
}

// Query returns a page of assets matching the filter and ordering.
func (r *AssetRepo) Query(ctx context.Context, filter AssetFilter, sort AssetSort, page Page) ([]*Asset, error) {
	where, args := buildAssetFilter(filter)
	limit, offset := page.bounds()
	args = append(args, limit, offset)

	query := "SELECT " + assetColumns + " FROM assets " + where +
		" ORDER BY " + orderClause(sort) + " LIMIT ? OFFSET ?"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return assets, nil
}

// Count returns the number of assets matching the filter.
func (r *AssetRepo) Count(ctx context.Context, filter AssetFilter) (int, error) {
	where, args := buildAssetFilter(filter)
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return n, nil
}

// ListFingerprints returns persisted hashes of all active (non-trashed,
// non-errored) assets.
func (r *AssetRepo) ListFingerprints(ctx context.Context) ([]FingerprintRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, exact_hash, perceptual_hash FROM assets WHERE in_trash = 0 AND status = 'ok'")
	if err != nil {
		return nil, fmt.Errorf("failed to list fingerprints: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []FingerprintRow
	for rows.Next() {
		var fr FingerprintRow
		var phash sql.NullInt64
		if err := rows.Scan(&fr.AssetID, &fr.ExactHash, &phash); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		if phash.Valid {
			u := uint64(phash.Int64)
			fr.PerceptualHash = &u
		}
		result = append(result, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// Stats summarizes the catalog for the UI status footer.
func (r *AssetRepo) Stats(ctx context.Context) (*LibraryStats, error) {
	stats := &LibraryStats{}
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*) FILTER (WHERE in_trash = 0),
		COALESCE(SUM(size) FILTER (WHERE in_trash = 0), 0),
		COUNT(*) FILTER (WHERE in_trash = 1),
		COALESCE(SUM(size) FILTER (WHERE in_trash = 1), 0),
		COUNT(*) FILTER (WHERE status = 'errored')
		FROM assets`).Scan(
		&stats.AssetCount, &stats.TotalBytes, &stats.TrashCount, &stats.TrashBytes, &stats.ErroredCount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM clusters WHERE status = 'unresolved'").Scan(&stats.UnresolvedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count unresolved clusters: %w", err)
	}
	return stats, nil
}

func buildAssetFilter(f AssetFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	switch f.Trash {
	case TrashExclude:
		clauses = append(clauses, "in_trash = 0")
	case TrashOnly:
		clauses = append(clauses, "in_trash = 1")
	case TrashAny:
	}
	if f.AlbumID != "" {
		clauses = append(clauses, "album_id = ?")
		args = append(args, f.AlbumID)
	}
	if f.FavoriteOnly {
		clauses = append(clauses, "favorite = 1")
	}
	if f.MinRating > 0 {
		clauses = append(clauses, "rating >= ?")
		args = append(args, f.MinRating)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		clauses = append(clauses, "tags LIKE ?")
		args = append(args, `%"`+f.Tag+`"%`)
	}
	if f.Search != "" {
		clauses = append(clauses, "(file_name LIKE ? COLLATE NOCASE OR notes LIKE ? COLLATE NOCASE OR tags LIKE ? COLLATE NOCASE)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", args
	}
	where := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func orderClause(sort AssetSort) string {
	col := "captured_at"
	switch sort.Field {
	case SortByRating:
		col = "rating"
	case SortByName:
		col = "file_name COLLATE NOCASE"
	case SortBySize:
		col = "size"
	case SortByDate, "":
		col = "captured_at"
	}
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}
	return col + " " + dir + ", id ASC"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*Asset, error) {
	var a Asset
	var kind, label, status string
	var phash sql.NullInt64
	var capturedAt, modifiedAt sql.NullTime
	var albumID sql.NullString
	var tagsJSON string

	err := row.Scan(&a.ID, &a.Path, &a.FileName, &kind, &a.Size, &a.Width, &a.Height,
		&a.DurationSeconds, &a.ExactHash, &phash, &capturedAt, &modifiedAt,
		&a.Camera, &a.Lens, &a.ISO, &a.Rating, &a.Favorite, &label, &tagsJSON,
		&a.Notes, &albumID, &a.InTrash, &status, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	a.Kind = MediaKind(kind)
	a.Label = ColorLabel(label)
	a.Status = AssetStatus(status)
	if phash.Valid {
		u := uint64(phash.Int64)
		a.PerceptualHash = &u
	}
	if capturedAt.Valid {
		a.CapturedAt = capturedAt.Time
	}
	if modifiedAt.Valid {
		a.ModifiedAt = modifiedAt.Time
	}
	if albumID.Valid {
		a.AlbumID = albumID.String
	}
	if err := json.Unmarshal([]byte(tagsJSON), &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for asset %s: %w", a.ID, err)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return &a, nil
}
