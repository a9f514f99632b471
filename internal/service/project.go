package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
	"auditdrive/internal/domain/services"
	"auditdrive/internal/layout"
)

const maxProjectNameLength = 255

type projectService struct {
	projectRepo repositories.ProjectRepository
	clientRepo  repositories.ClientRepository
	provisioner services.FolderProvisioner
	remote      services.HierarchyProvider
	access      services.AccessService
	layout      *layout.Registry
	rootParent  *string // configured drive root the workspace lives under, nil = root
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	clientRepo repositories.ClientRepository,
	provisioner services.FolderProvisioner,
	remote services.HierarchyProvider,
	access services.AccessService,
	layoutRegistry *layout.Registry,
	rootParent *string,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		provisioner: provisioner,
		remote:      remote,
		access:      access,
		layout:      layoutRegistry,
		rootParent:  rootParent,
		logger:      logger,
	}
}

// CreateProject provisions root label -> client name -> category, creates the
// project's own folder under the category, then persists the project row.
// A provisioning failure aborts the whole operation before any row is
// written, so no project ever references a folder that does not exist.
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	if err := validateCreateProject(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	rootLabel, err := s.layout.RootLabel(client.CompanyType)
	if err != nil {
		return nil, err
	}
	categoryLabel, err := s.layout.CategoryLabel(req.Type)
	if err != nil {
		return nil, err
	}

	categoryFolderID, err := s.provisioner.EnsurePath(ctx,
		[]string{rootLabel, client.Name, categoryLabel},
		s.rootParent,
	)
	if err != nil {
		return nil, err
	}

	projectFolder, err := s.remote.CreateUnderParent(ctx, req.Name, &categoryFolderID)
	if err != nil {
		return nil, &domain.ProvisioningError{Segment: req.Name, Err: err}
	}

	project := &models.Project{
		ClientID:      req.ClientID,
		Name:          req.Name,
		Type:          req.Type,
		DriveFolderID: projectFolder.ID,
		CreatedBy:     req.CreatedBy,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		// The remote folder stays: it is a valid, reusable result for a
		// retried request, not garbage.
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"name", project.Name,
		"client_id", project.ClientID,
		"type", project.Type,
		"drive_folder_id", project.DriveFolderID,
	)

	return project, nil
}

// ListProjects returns the client's projects visible to the caller's role
func (s *projectService) ListProjects(ctx context.Context, clientID, userID string, role models.Role) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.access.VisibleProjects(ctx, userID, role, projects)
}

func validateCreateProject(req *services.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ClientID, validation.Required, is.UUID),
		validation.Field(&req.Name, validation.Required, validation.Length(1, maxProjectNameLength)),
		validation.Field(&req.Type, validation.Required, validation.In(
			models.ProjectTax,
			models.ProjectAudit,
		)),
	)
}
