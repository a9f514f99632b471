package services

import (
	"context"

	"auditdrive/internal/domain/models"
)

// HierarchyProvider abstracts the external hierarchical storage backend.
//
// Implementations return the closed error set domain.ErrNotFound,
// domain.ErrPermissionDenied and domain.ErrBackendUnavailable; callers
// pattern-match with errors.Is instead of inspecting backend status codes.
type HierarchyProvider interface {
	// FindByNameUnderParent searches for a folder with the exact name under
	// the given parent (nil = hierarchy root). Folders only, trashed items
	// excluded. If the backend holds duplicates, the first in backend order
	// wins; the cache absorbs that non-determinism going forward.
	FindByNameUnderParent(ctx context.Context, name string, parentRef *string) (*models.RemoteFolder, error)

	// CreateUnderParent creates a folder under the given parent
	// (nil = hierarchy root).
	CreateUnderParent(ctx context.Context, name string, parentRef *string) (*models.RemoteFolder, error)

	// ParentExists reports whether ref is a usable parent. NotFound and
	// PermissionDenied from the backend both count as "does not usably
	// exist" and return (false, nil); only transport failures are errors.
	ParentExists(ctx context.Context, ref string) (bool, error)

	// IsKnownSharedRoot reports whether ref is a shared root-like container.
	// Such containers fail ordinary existence checks yet are valid parents.
	IsKnownSharedRoot(ctx context.Context, ref string) (bool, error)
}
