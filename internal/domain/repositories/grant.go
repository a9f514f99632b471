package repositories

import (
	"context"

	"auditdrive/internal/domain/models"
)

// GrantRepository persists access grants. Rows are never deduplicated on
// write; reads that need a single answer per project resolve most-recent-wins
// by assignment timestamp.
type GrantRepository interface {
	// Add creates a new grant row.
	Add(ctx context.Context, grant *models.AccessGrant) error

	// GetByID retrieves a grant row, domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.AccessGrant, error)

	// Update mutates has_access and expires_at in place.
	// Returns domain.ErrNotFound if the row is absent.
	Update(ctx context.Context, grant *models.AccessGrant) error

	// Delete removes a grant row, domain.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ListByProject returns all grant rows for a project, newest first.
	ListByProject(ctx context.Context, projectID string) ([]models.AccessGrant, error)

	// ListByUser returns all grant rows for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.AccessGrant, error)

	// CurrentForUser returns the governing grant per project for a user:
	// for each project with at least one row, the most recently assigned one.
	CurrentForUser(ctx context.Context, userID string) (map[string]models.AccessGrant, error)
}
