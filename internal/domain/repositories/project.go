package repositories

import (
	"context"

	"auditdrive/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves an active project by ID
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListByClient retrieves all active projects for a client
	ListByClient(ctx context.Context, clientID string) ([]models.Project, error)

	// Deactivate soft-deletes a project
	Deactivate(ctx context.Context, id string) error
}
