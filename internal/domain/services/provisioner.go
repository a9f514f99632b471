package services

import (
	"context"
)

// FolderProvisioner guarantees that a hierarchy path exists in the remote
// backend, level by level, populating the folder cache as it goes.
type FolderProvisioner interface {
	// EnsurePath resolves each segment in order under the one before it,
	// starting from rootParent (nil = hierarchy root), and returns the
	// remote id of the final segment. Re-running with the same arguments
	// never creates a duplicate remote folder: a cache hit short-circuits,
	// and on a miss the remote is searched before anything is created.
	// Failures are *domain.ProvisioningError naming the offending segment.
	EnsurePath(ctx context.Context, segments []string, rootParent *string) (string, error)
}
