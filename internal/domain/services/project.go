package services

import (
	"context"

	"auditdrive/internal/domain/models"
)

// ClientService manages clients
type ClientService interface {
	// RegisterClient creates a new client
	RegisterClient(ctx context.Context, req *RegisterClientRequest) (*models.Client, error)

	// ListClients retrieves all active clients
	ListClients(ctx context.Context) ([]models.Client, error)

	// DeleteClient soft-deletes a client
	DeleteClient(ctx context.Context, id string) error
}

// ProjectService manages projects and their workspace folders
type ProjectService interface {
	// CreateProject provisions the client's folder hierarchy in the remote
	// backend, creates the project's own folder under it, and persists the
	// project row. If provisioning fails the whole operation aborts: no
	// project row is left referencing a non-existent folder.
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)

	// ListProjects returns the client's projects visible to the caller.
	ListProjects(ctx context.Context, clientID, userID string, role models.Role) ([]models.Project, error)
}

type RegisterClientRequest struct {
	Name        string             `json:"name"`
	CompanyType models.CompanyType `json:"company_type"`
	CreatedBy   string             `json:"-"`
}

type CreateProjectRequest struct {
	ClientID  string             `json:"client_id"`
	Name      string             `json:"name"`
	Type      models.ProjectType `json:"type"`
	CreatedBy string             `json:"-"`
}
