package services

import (
	"context"
	"time"

	"auditdrive/internal/domain/models"
)

// AccessService decides which projects a user may see and manages the
// explicit grant table. Grant management is restricted to the Partner role.
type AccessService interface {
	// VisibleProjects returns the subset of projects the user may see under
	// their role. Either the full correctly-scoped subset is returned or an
	// error, never a silently truncated set. An unrecognized role fails with
	// domain.ErrUnauthorizedRole before any data is touched.
	VisibleProjects(ctx context.Context, userID string, role models.Role, projects []models.Project) ([]models.Project, error)

	// AddGrant creates a new grant row. Existing rows for the same
	// (user, project) pair are not deduplicated; the most recent wins.
	AddGrant(ctx context.Context, actor models.Role, req *AddGrantRequest) (*models.AccessGrant, error)

	// UpdateGrant mutates an existing grant row in place.
	UpdateGrant(ctx context.Context, actor models.Role, grantID string, req *UpdateGrantRequest) (*models.AccessGrant, error)

	// RevokeGrant removes a grant row.
	RevokeGrant(ctx context.Context, actor models.Role, grantID string) error

	// ListGrantsForProject lists all grant rows for a project.
	ListGrantsForProject(ctx context.Context, actor models.Role, projectID string) ([]models.AccessGrant, error)

	// ListGrantsForUser lists all grant rows for a user.
	ListGrantsForUser(ctx context.Context, actor models.Role, userID string) ([]models.AccessGrant, error)
}

type AddGrantRequest struct {
	UserID    string     `json:"user_id"`
	ProjectID string     `json:"project_id"`
	HasAccess bool       `json:"has_access"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UpdateGrantRequest struct {
	HasAccess bool       `json:"has_access"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
