package repositories

import (
	"context"

	"auditdrive/internal/domain/models"
)

// ClientRepository defines data access operations for clients
type ClientRepository interface {
	// Create creates a new client
	Create(ctx context.Context, client *models.Client) error

	// GetByID retrieves an active client by ID
	GetByID(ctx context.Context, id string) (*models.Client, error)

	// List retrieves all active clients
	List(ctx context.Context) ([]models.Client, error)

	// Deactivate soft-deletes a client
	Deactivate(ctx context.Context, id string) error
}
