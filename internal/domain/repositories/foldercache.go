package repositories

import (
	"context"

	"auditdrive/internal/domain/models"
)

// FolderCacheRepository is the authoritative local record of which remote
// folder realizes each hierarchy segment. Correctness-over-freshness: no TTL,
// rows live until an administrative soft delete.
type FolderCacheRepository interface {
	// Lookup returns the remote id mapped to (name, parentRef), or
	// domain.ErrNotFound. A nil parentRef means the hierarchy root.
	Lookup(ctx context.Context, name string, parentRef *string) (string, error)

	// Insert records a mapping. Re-inserting the same remote id is an
	// idempotent no-op returning the existing row. An active row with a
	// different remote id yields a domain.CacheDivergenceError.
	Insert(ctx context.Context, name string, parentRef *string, remoteID string) (*models.CachedFolder, error)

	// Deactivate soft-deletes a row by id. The row is retained for audit.
	Deactivate(ctx context.Context, id string) error
}
