package dedup

import (
	"errors"
	"fmt"
)

// ErrNothingToResolve means the cluster has fewer than two active members
// left, so there is no dedup decision to make.
var ErrNothingToResolve = errors.New("cluster has nothing to resolve")

// StaleClusterError means resolution was attempted against cluster
// membership that has changed since the recommendation was computed. The
// caller recovers by recomputing the recommendation.
type StaleClusterError struct {
	ClusterID string
	Reason    string
}

func (e *StaleClusterError) Error() string {
	return fmt.Sprintf("cluster %s is stale: %s", e.ClusterID, e.Reason)
}

// ResolutionError means a specific asset mutation failed while resolving a
// cluster. The whole resolution is rolled back; the cluster stays
// unresolved.
type ResolutionError struct {
	ClusterID string
	AssetID   string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve cluster %s at asset %s: %v", e.ClusterID, e.AssetID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
