package catalog

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_cluster_store.go -package=mocks lumina/internal/catalog ClusterStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ClusterStore defines the interface for persisted similarity clusters.
type ClusterStore interface {
	// ReplaceActive replaces every unresolved and ignored cluster with the
	// given snapshot in a single transaction. Resolved clusters are kept as
	// historical records and never touched by rebuilds.
	ReplaceActive(ctx context.Context, clusters []*Cluster) error
	// List returns clusters, optionally filtered by status ("" for all),
	// members included.
	List(ctx context.Context, status ClusterStatus) ([]*Cluster, error)
	// Get returns one cluster with members, or ErrNotFound.
	Get(ctx context.Context, id string) (*Cluster, error)
	// SetStatus updates a cluster's review status.
	SetStatus(ctx context.Context, id string, status ClusterStatus) error
	// ApplyResolution trashes the given assets and marks the cluster
	// resolved in one transaction. If any asset row is missing the whole
	// transaction rolls back and ErrNotFound is returned wrapped with the
	// offending asset id.
	ApplyResolution(ctx context.Context, clusterID string, trashIDs []string) error
}

// ClusterRepo implements ClusterStore on SQLite.
type ClusterRepo struct {
	db *DB
}

// NewClusterRepo creates a new ClusterRepo.
func NewClusterRepo(db *DB) *ClusterRepo {
	return &ClusterRepo{db: db}
}

// ReplaceActive swaps in a full snapshot of the live clustering state.
func (r *ClusterRepo) ReplaceActive(ctx context.Context, clusters []*Cluster) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cluster replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clusters WHERE status != 'resolved'"); err != nil {
		return fmt.Errorf("failed to clear active clusters: %w", err)
	}

	now := time.Now().UTC()
	for _, c := range clusters {
		status := c.Status
		if status == "" {
			status = ClusterUnresolved
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO clusters (id, status, membership_hash, updated_at) VALUES (?, ?, ?, ?)",
			c.ID, string(status), c.MembershipHash, now)
		if err != nil {
			return fmt.Errorf("failed to insert cluster %s: %w", c.ID, err)
		}
		for _, m := range c.Members {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO cluster_members (cluster_id, asset_id, score) VALUES (?, ?, ?)",
				c.ID, m.AssetID, m.Score)
			if err != nil {
				return fmt.Errorf("failed to insert member %s of cluster %s: %w", m.AssetID, c.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cluster replace: %w", err)
	}
	return nil
}

// List returns clusters with their members, optionally filtered by status.
func (r *ClusterRepo) List(ctx context.Context, status ClusterStatus) ([]*Cluster, error) {
	query := "SELECT id, status, membership_hash FROM clusters"
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var clusters []*Cluster
	for rows.Next() {
		var c Cluster
		var s string
		if err := rows.Scan(&c.ID, &s, &c.MembershipHash); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		c.Status = ClusterStatus(s)
		clusters = append(clusters, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, c := range clusters {
		members, err := r.members(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Members = members
	}
	return clusters, nil
}

// Get returns one cluster with its members.
func (r *ClusterRepo) Get(ctx context.Context, id string) (*Cluster, error) {
	var c Cluster
	var s string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, status, membership_hash FROM clusters WHERE id = ?", id,
	).Scan(&c.ID, &s, &c.MembershipHash)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster: %w", err)
	}
	c.Status = ClusterStatus(s)

	members, err := r.members(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Members = members
	return &c, nil
}

func (r *ClusterRepo) members(ctx context.Context, clusterID string) ([]ClusterMember, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT asset_id, score FROM cluster_members WHERE cluster_id = ? ORDER BY score DESC, asset_id",
		clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster members: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var members []ClusterMember
	for rows.Next() {
		var m ClusterMember
		if err := rows.Scan(&m.AssetID, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan cluster member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return members, nil
}

// SetStatus updates a cluster's review status.
func (r *ClusterRepo) SetStatus(ctx context.Context, id string, status ClusterStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE clusters SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update cluster status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyResolution trashes the listed assets and marks the cluster resolved
// atomically. Either every asset transitions or none do.
func (r *ClusterRepo) ApplyResolution(ctx context.Context, clusterID string, trashIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin resolution: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, id := range trashIDs {
		res, err := tx.ExecContext(ctx,
			"UPDATE assets SET in_trash = 1, updated_at = ? WHERE id = ?", now, id)
		if err != nil {
			return fmt.Errorf("failed to trash asset %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check trash update for asset %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE clusters SET status = 'resolved', updated_at = ? WHERE id = ?", now, clusterID)
	if err != nil {
		return fmt.Errorf("failed to mark cluster resolved: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cluster update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cluster %s: %w", clusterID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}
	return nil
}
