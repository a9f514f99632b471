package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
	"auditdrive/internal/domain/services"
)

// visibilityRule narrows a tenant's full project list to what one user sees.
type visibilityRule func(ctx context.Context, s *accessService, userID string, projects []models.Project) ([]models.Project, error)

type accessService struct {
	grantRepo repositories.GrantRepository
	txManager repositories.TransactionManager
	rules     map[models.Role]visibilityRule
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccessService creates a new access service
func NewAccessService(
	grantRepo repositories.GrantRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.AccessService {
	s := &accessService{
		grantRepo: grantRepo,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
	// Closed role set. Adding a role is one table entry plus a rule.
	s.rules = map[models.Role]visibilityRule{
		models.RolePartner:      ruleAllProjects,
		models.RoleTaxManager:   ruleByType(models.ProjectTax),
		models.RoleAuditManager: ruleByType(models.ProjectAudit),
		models.RoleUser:         ruleGranted,
	}
	return s
}

// VisibleProjects applies the role's visibility rule. Unknown roles fail
// before any data access.
func (s *accessService) VisibleProjects(ctx context.Context, userID string, role models.Role, projects []models.Project) ([]models.Project, error) {
	rule, ok := s.rules[role]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrUnauthorizedRole)
	}
	return rule(ctx, s, userID, projects)
}

func ruleAllProjects(_ context.Context, _ *accessService, _ string, projects []models.Project) ([]models.Project, error) {
	return projects, nil
}

func ruleByType(pt models.ProjectType) visibilityRule {
	return func(_ context.Context, _ *accessService, _ string, projects []models.Project) ([]models.Project, error) {
		visible := make([]models.Project, 0, len(projects))
		for _, p := range projects {
			if p.Type == pt {
				visible = append(visible, p)
			}
		}
		return visible, nil
	}
}

// ruleGranted keeps only projects whose governing grant confers access and
// has not expired. A row removed outright and a row flipped to
// has_access=false are indistinguishable here, as intended.
func ruleGranted(ctx context.Context, s *accessService, userID string, projects []models.Project) ([]models.Project, error) {
	current, err := s.grantRepo.CurrentForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load grants for user %s: %w", userID, err)
	}

	now := s.now()
	visible := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		grant, ok := current[p.ID]
		if ok && grant.Live(now) {
			visible = append(visible, p)
		}
	}

	return visible, nil
}

// AddGrant creates a new grant row. Rows are never deduplicated: the
// most recently assigned row per (user, project) governs.
func (s *accessService) AddGrant(ctx context.Context, actor models.Role, req *services.AddGrantRequest) (*models.AccessGrant, error) {
	if err := s.requirePartner(actor); err != nil {
		return nil, err
	}
	if err := validateAddGrant(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	grant := &models.AccessGrant{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		ProjectID:  req.ProjectID,
		HasAccess:  req.HasAccess,
		AssignedAt: s.now(),
		ExpiresAt:  req.ExpiresAt,
	}

	if err := s.grantRepo.Add(ctx, grant); err != nil {
		return nil, err
	}

	s.logger.Info("grant added",
		"grant_id", grant.ID,
		"user_id", grant.UserID,
		"project_id", grant.ProjectID,
		"has_access", grant.HasAccess,
	)

	return grant, nil
}

// UpdateGrant mutates an existing grant row in place
func (s *accessService) UpdateGrant(ctx context.Context, actor models.Role, grantID string, req *services.UpdateGrantRequest) (*models.AccessGrant, error) {
	if err := s.requirePartner(actor); err != nil {
		return nil, err
	}

	// Read-modify-write under one transaction so concurrent updates to the
	// same row don't interleave.
	var grant *models.AccessGrant
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		grant, err = s.grantRepo.GetByID(txCtx, grantID)
		if err != nil {
			return err
		}

		grant.HasAccess = req.HasAccess
		grant.ExpiresAt = req.ExpiresAt

		return s.grantRepo.Update(txCtx, grant)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("grant updated",
		"grant_id", grant.ID,
		"has_access", grant.HasAccess,
	)

	return grant, nil
}

// RevokeGrant removes a grant row
func (s *accessService) RevokeGrant(ctx context.Context, actor models.Role, grantID string) error {
	if err := s.requirePartner(actor); err != nil {
		return err
	}

	if err := s.grantRepo.Delete(ctx, grantID); err != nil {
		return err
	}

	s.logger.Info("grant revoked", "grant_id", grantID)
	return nil
}

// ListGrantsForProject lists all grant rows for a project
func (s *accessService) ListGrantsForProject(ctx context.Context, actor models.Role, projectID string) ([]models.AccessGrant, error) {
	if err := s.requirePartner(actor); err != nil {
		return nil, err
	}
	return s.grantRepo.ListByProject(ctx, projectID)
}

// ListGrantsForUser lists all grant rows for a user
func (s *accessService) ListGrantsForUser(ctx context.Context, actor models.Role, userID string) ([]models.AccessGrant, error) {
	if err := s.requirePartner(actor); err != nil {
		return nil, err
	}
	return s.grantRepo.ListByUser(ctx, userID)
}

func (s *accessService) requirePartner(actor models.Role) error {
	if actor != models.RolePartner {
		return fmt.Errorf("grant management requires Partner role: %w", domain.ErrForbidden)
	}
	return nil
}

func validateAddGrant(req *services.AddGrantRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ProjectID, validation.Required, is.UUID),
	)
}
