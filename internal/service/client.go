package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
	"auditdrive/internal/domain/services"
)

const maxClientNameLength = 255

type clientService struct {
	clientRepo repositories.ClientRepository
	logger     *slog.Logger
}

// NewClientService creates a new client service
func NewClientService(clientRepo repositories.ClientRepository, logger *slog.Logger) services.ClientService {
	return &clientService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// RegisterClient creates a new client
func (s *clientService) RegisterClient(ctx context.Context, req *services.RegisterClientRequest) (*models.Client, error) {
	if err := validateRegisterClient(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	client := &models.Client{
		Name:        req.Name,
		CompanyType: req.CompanyType,
		CreatedBy:   req.CreatedBy,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("client registered",
		"id", client.ID,
		"name", client.Name,
		"company_type", client.CompanyType,
	)

	return client, nil
}

// ListClients retrieves all active clients
func (s *clientService) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.clientRepo.List(ctx)
}

// DeleteClient soft-deletes a client
func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	if err := s.clientRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("client deleted", "id", id)
	return nil
}

func validateRegisterClient(req *services.RegisterClientRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, maxClientNameLength)),
		validation.Field(&req.CompanyType, validation.Required, validation.In(
			models.CompanyPrivateLabel,
			models.CompanyPublicCompany,
		)),
	)
}
