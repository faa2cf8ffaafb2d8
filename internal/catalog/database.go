package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite handle together with the instance lock that guards
// the catalog against concurrent engine processes.
type DB struct {
	*sql.DB
	lockPath string
}

// Open opens (or creates) the catalog database at the given path.
// It acquires an exclusive lock file next to the database, enables WAL mode
// and foreign keys, and verifies the integrity of an existing store before
// returning. A catalog that fails its integrity check surfaces an
// *IntegrityError instead of loading as an empty library.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	lockPath := path + ".lock"
	if err := acquireLock(lockPath); err != nil {
		return nil, err
	}

	// Connection-level settings go in the DSN so every pooled connection
	// gets them. _txlock=immediate makes transactions take the write lock
	// up front; a read-modify-write inside one transaction can then never
	// interleave with another writer.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		releaseLock(lockPath)
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			releaseLock(lockPath)
			return nil, err
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		releaseLock(lockPath)
		return nil, err
	}

	if err := verifyIntegrity(db, path); err != nil {
		_ = db.Close()
		releaseLock(lockPath)
		return nil, err
	}

	return &DB{DB: db, lockPath: lockPath}, nil
}

// Close closes the database and releases the instance lock.
func (d *DB) Close() error {
	err := d.DB.Close()
	releaseLock(d.lockPath)
	return err
}

func acquireLock(lockPath string) error {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w (lock file %s)", ErrLocked, lockPath)
		}
		return fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}

func releaseLock(lockPath string) {
	_ = os.Remove(lockPath)
}

// verifyIntegrity runs SQLite's quick_check so a corrupted catalog fails
// fast with a diagnosable error on load.
func verifyIntegrity(db *sql.DB, path string) error {
	var result string
	if err := db.QueryRow("PRAGMA quick_check;").Scan(&result); err != nil {
		return &IntegrityError{Path: path, Detail: "quick_check could not run", Err: err}
	}
	if !strings.EqualFold(result, "ok") {
		return &IntegrityError{Path: path, Detail: result}
	}
	return nil
}

// Migrate creates the catalog tables and indexes. It is idempotent.
func Migrate(db *DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			file_name TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('image','video')),
			size INTEGER NOT NULL DEFAULT 0,
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			duration_seconds REAL NOT NULL DEFAULT 0,
			exact_hash TEXT NOT NULL DEFAULT '',
			perceptual_hash INTEGER,
			captured_at DATETIME,
			modified_at DATETIME,
			camera TEXT NOT NULL DEFAULT '',
			lens TEXT NOT NULL DEFAULT '',
			iso INTEGER NOT NULL DEFAULT 0,
			rating INTEGER NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 5),
			favorite INTEGER NOT NULL DEFAULT 0,
			label TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			notes TEXT NOT NULL DEFAULT '',
			album_id TEXT REFERENCES albums(id) ON DELETE SET NULL,
			in_trash INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'ok',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_exact_hash ON assets(exact_hash);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_album ON assets(album_id);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_trash ON assets(in_trash);`,
		`CREATE TABLE IF NOT EXISTS clusters (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'unresolved',
			membership_hash TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_clusters_membership ON clusters(membership_hash);`,
		`CREATE TABLE IF NOT EXISTS cluster_members (
			cluster_id TEXT NOT NULL REFERENCES clusters(id) ON DELETE CASCADE,
			asset_id TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (cluster_id, asset_id)
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
