package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlbumStore defines the interface for album storage operations.
type AlbumStore interface {
	// Create adds a new album with a unique name.
	Create(ctx context.Context, name string) (*Album, error)
	// Get returns the album with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Album, error)
	// List returns all albums ordered by name.
	List(ctx context.Context) ([]*Album, error)
	// Rename changes an album's name.
	Rename(ctx context.Context, id, name string) error
	// Delete removes an album. Member assets keep their records; their
	// album membership is cleared, never cascaded.
	Delete(ctx context.Context, id string) error
}

// AlbumRepo implements AlbumStore on SQLite.
type AlbumRepo struct {
	db *DB
}

// NewAlbumRepo creates a new AlbumRepo.
func NewAlbumRepo(db *DB) *AlbumRepo {
	return &AlbumRepo{db: db}
}

// Create adds a new album.
func (r *AlbumRepo) Create(ctx context.Context, name string) (*Album, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	album := &Album{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO albums (id, name, created_at) VALUES (?, ?, ?)",
		album.ID, album.Name, album.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return album, nil
}

// Get returns the album with the given id.
func (r *AlbumRepo) Get(ctx context.Context, id string) (*Album, error) {
	var album Album
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM albums WHERE id = ?", id,
	).Scan(&album.ID, &album.Name, &album.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query album: %w", err)
	}
	return &album, nil
}

// List returns all albums ordered by name.
func (r *AlbumRepo) List(ctx context.Context) ([]*Album, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM albums ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var albums []*Album
	for rows.Next() {
		var album Album
		if err := rows.Scan(&album.ID, &album.Name, &album.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, &album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return albums, nil
}

// Rename changes an album's name.
func (r *AlbumRepo) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	res, err := r.db.ExecContext(ctx, "UPDATE albums SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("failed to rename album: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an album. The albums.album_id foreign key is declared
// ON DELETE SET NULL, so member assets lose their membership and nothing
// else; assets are never deleted through an album.
func (r *AlbumRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
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
