package service

import (
	"context"
	"errors"
	"testing"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/services"
)

func TestRegisterClient(t *testing.T) {
	repo := &fakeClientRepo{clients: make(map[string]models.Client)}
	svc := NewClientService(repo, discardLogger())

	client, err := svc.RegisterClient(context.Background(), &services.RegisterClientRequest{
		Name:        "Acme Corp",
		CompanyType: models.CompanyPrivateLabel,
		CreatedBy:   "partner-1",
	})
	if err != nil {
		t.Fatalf("RegisterClient failed: %v", err)
	}
	if client.Name != "Acme Corp" || client.CompanyType != models.CompanyPrivateLabel {
		t.Errorf("unexpected client %+v", client)
	}
	if client.CreatedBy != "partner-1" {
		t.Errorf("expected creator recorded, got %q", client.CreatedBy)
	}
}

func TestRegisterClient_Validation(t *testing.T) {
	svc := NewClientService(&fakeClientRepo{clients: make(map[string]models.Client)}, discardLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *services.RegisterClientRequest
	}{
		{"missing name", &services.RegisterClientRequest{CompanyType: models.CompanyPrivateLabel}},
		{"unknown company type", &services.RegisterClientRequest{Name: "Acme", CompanyType: models.CompanyType("nonprofit")}},
		{"missing company type", &services.RegisterClientRequest{Name: "Acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RegisterClient(ctx, tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestDeleteClient_NotFound(t *testing.T) {
	svc := NewClientService(&fakeClientRepo{clients: make(map[string]models.Client)}, discardLogger())

	if err := svc.DeleteClient(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
