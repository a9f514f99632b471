package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
	"auditdrive/internal/domain/services"
)

// fakeGrantRepo is an in-memory GrantRepository.
type fakeGrantRepo struct {
	mu     sync.Mutex
	grants map[string]models.AccessGrant
	calls  int
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: make(map[string]models.AccessGrant)}
}

func (f *fakeGrantRepo) Add(ctx context.Context, grant *models.AccessGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.grants[grant.ID] = *grant
	return nil
}

func (f *fakeGrantRepo) GetByID(ctx context.Context, id string) (*models.AccessGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	g, ok := f.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", id, domain.ErrNotFound)
	}
	return &g, nil
}

func (f *fakeGrantRepo) Update(ctx context.Context, grant *models.AccessGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.grants[grant.ID]; !ok {
		return fmt.Errorf("grant %s: %w", grant.ID, domain.ErrNotFound)
	}
	f.grants[grant.ID] = *grant
	return nil
}

func (f *fakeGrantRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.grants[id]; !ok {
		return fmt.Errorf("grant %s: %w", id, domain.ErrNotFound)
	}
	delete(f.grants, id)
	return nil
}

func (f *fakeGrantRepo) ListByProject(ctx context.Context, projectID string) ([]models.AccessGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []models.AccessGrant
	for _, g := range f.grants {
		if g.ProjectID == projectID {
			out = append(out, g)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeGrantRepo) ListByUser(ctx context.Context, userID string) ([]models.AccessGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []models.AccessGrant
	for _, g := range f.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeGrantRepo) CurrentForUser(ctx context.Context, userID string) (map[string]models.AccessGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	current := make(map[string]models.AccessGrant)
	for _, g := range f.grants {
		if g.UserID != userID {
			continue
		}
		if prev, ok := current[g.ProjectID]; !ok || g.AssignedAt.After(prev.AssignedAt) {
			current[g.ProjectID] = g
		}
	}
	return current, nil
}

func sortNewestFirst(grants []models.AccessGrant) {
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].AssignedAt.After(grants[j].AssignedAt)
	})
}

// fakeTxManager runs the function directly, no transaction.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func newTestAccessService(repo *fakeGrantRepo) *accessService {
	return NewAccessService(repo, fakeTxManager{}, discardLogger()).(*accessService)
}

func sampleProjects() []models.Project {
	return []models.Project{
		{ID: "11111111-1111-1111-1111-111111111111", Name: "Acme Tax 2025", Type: models.ProjectTax},
		{ID: "22222222-2222-2222-2222-222222222222", Name: "Acme Audit 2025", Type: models.ProjectAudit},
		{ID: "33333333-3333-3333-3333-333333333333", Name: "Acme Tax 2024", Type: models.ProjectTax},
	}
}

func projectNames(projects []models.Project) []string {
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return names
}

func TestVisibleProjects_RoleRules(t *testing.T) {
	repo := newFakeGrantRepo()
	svc := newTestAccessService(repo)
	ctx := context.Background()
	projects := sampleProjects()

	// Grant-based user can see exactly one tax project.
	repo.grants["g-1"] = models.AccessGrant{
		ID:         "g-1",
		UserID:     "user-1",
		ProjectID:  projects[0].ID,
		HasAccess:  true,
		AssignedAt: time.Now(),
	}

	tests := []struct {
		name string
		role models.Role
		want []string
	}{
		{"partner sees everything", models.RolePartner, []string{"Acme Tax 2025", "Acme Audit 2025", "Acme Tax 2024"}},
		{"tax manager sees tax only", models.RoleTaxManager, []string{"Acme Tax 2025", "Acme Tax 2024"}},
		{"audit manager sees audit only", models.RoleAuditManager, []string{"Acme Audit 2025"}},
		{"user sees granted only", models.RoleUser, []string{"Acme Tax 2025"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visible, err := svc.VisibleProjects(ctx, "user-1", tt.role, projects)
			if err != nil {
				t.Fatalf("VisibleProjects failed: %v", err)
			}
			got := projectNames(visible)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestVisibleProjects_UnknownRoleFailsBeforeDataAccess(t *testing.T) {
	repo := newFakeGrantRepo()
	svc := newTestAccessService(repo)

	_, err := svc.VisibleProjects(context.Background(), "user-1", models.Role("Intern"), sampleProjects())
	if !errors.Is(err, domain.ErrUnauthorizedRole) {
		t.Fatalf("expected ErrUnauthorizedRole, got %v", err)
	}
	if repo.calls != 0 {
		t.Errorf("expected no repository calls for unknown role, got %d", repo.calls)
	}
}

func TestVisibleProjects_GrantExpiry(t *testing.T) {
	projects := sampleProjects()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		hasAccess bool
		expiresAt *time.Time
		visible   bool
	}{
		{"no expiry is visible", true, nil, true},
		{"future expiry is visible", true, &future, true},
		{"past expiry is hidden", true, &past, false},
		{"access flag off is hidden", false, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeGrantRepo()
			repo.grants["g-1"] = models.AccessGrant{
				ID:         "g-1",
				UserID:     "user-1",
				ProjectID:  projects[0].ID,
				HasAccess:  tt.hasAccess,
				AssignedAt: now.Add(-24 * time.Hour),
				ExpiresAt:  tt.expiresAt,
			}
			svc := newTestAccessService(repo)
			svc.now = func() time.Time { return now }

			visible, err := svc.VisibleProjects(context.Background(), "user-1", models.RoleUser, projects)
			if err != nil {
				t.Fatalf("VisibleProjects failed: %v", err)
			}
			if got := len(visible) == 1; got != tt.visible {
				t.Errorf("expected visible=%v, got projects %v", tt.visible, projectNames(visible))
			}
		})
	}
}

func TestVisibleProjects_MostRecentGrantGoverns(t *testing.T) {
	projects := sampleProjects()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	repo := newFakeGrantRepo()
	repo.grants["g-old"] = models.AccessGrant{
		ID:         "g-old",
		UserID:     "user-1",
		ProjectID:  projects[0].ID,
		HasAccess:  true,
		AssignedAt: base,
	}
	repo.grants["g-new"] = models.AccessGrant{
		ID:         "g-new",
		UserID:     "user-1",
		ProjectID:  projects[0].ID,
		HasAccess:  false,
		AssignedAt: base.Add(time.Hour),
	}
	svc := newTestAccessService(repo)

	visible, err := svc.VisibleProjects(context.Background(), "user-1", models.RoleUser, projects)
	if err != nil {
		t.Fatalf("VisibleProjects failed: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("newer revoking grant should govern, got %v", projectNames(visible))
	}
}

func TestGrantManagement_RequiresPartner(t *testing.T) {
	repo := newFakeGrantRepo()
	svc := newTestAccessService(repo)
	ctx := context.Background()
	req := &services.AddGrantRequest{
		UserID:    "user-1",
		ProjectID: "11111111-1111-1111-1111-111111111111",
		HasAccess: true,
	}

	for _, role := range []models.Role{models.RoleTaxManager, models.RoleAuditManager, models.RoleUser} {
		t.Run(string(role), func(t *testing.T) {
			if _, err := svc.AddGrant(ctx, role, req); !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("AddGrant: expected ErrForbidden, got %v", err)
			}
			if _, err := svc.UpdateGrant(ctx, role, "g-1", &services.UpdateGrantRequest{}); !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("UpdateGrant: expected ErrForbidden, got %v", err)
			}
			if err := svc.RevokeGrant(ctx, role, "g-1"); !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("RevokeGrant: expected ErrForbidden, got %v", err)
			}
			if _, err := svc.ListGrantsForProject(ctx, role, "p-1"); !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("ListGrantsForProject: expected ErrForbidden, got %v", err)
			}
			if _, err := svc.ListGrantsForUser(ctx, role, "user-1"); !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("ListGrantsForUser: expected ErrForbidden, got %v", err)
			}
		})
	}

	if repo.calls != 0 {
		t.Errorf("expected no repository calls for forbidden actors, got %d", repo.calls)
	}
}

func TestAddGrant_Validation(t *testing.T) {
	svc := newTestAccessService(newFakeGrantRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *services.AddGrantRequest
	}{
		{"missing user id", &services.AddGrantRequest{ProjectID: "11111111-1111-1111-1111-111111111111"}},
		{"missing project id", &services.AddGrantRequest{UserID: "user-1"}},
		{"project id not a uuid", &services.AddGrantRequest{UserID: "user-1", ProjectID: "not-a-uuid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddGrant(ctx, models.RolePartner, tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAddGrant_NeverDeduplicates(t *testing.T) {
	repo := newFakeGrantRepo()
	svc := newTestAccessService(repo)
	ctx := context.Background()
	req := &services.AddGrantRequest{
		UserID:    "user-1",
		ProjectID: "11111111-1111-1111-1111-111111111111",
		HasAccess: true,
	}

	first, err := svc.AddGrant(ctx, models.RolePartner, req)
	if err != nil {
		t.Fatalf("first AddGrant failed: %v", err)
	}
	second, err := svc.AddGrant(ctx, models.RolePartner, req)
	if err != nil {
		t.Fatalf("second AddGrant failed: %v", err)
	}

	if first.ID == second.ID {
		t.Error("expected distinct grant rows for repeated adds")
	}
	if len(repo.grants) != 2 {
		t.Errorf("expected 2 stored rows, got %d", len(repo.grants))
	}
}

func TestUpdateGrant(t *testing.T) {
	repo := newFakeGrantRepo()
	repo.grants["g-1"] = models.AccessGrant{
		ID:        "g-1",
		UserID:    "user-1",
		ProjectID: "11111111-1111-1111-1111-111111111111",
		HasAccess: true,
	}
	svc := newTestAccessService(repo)
	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	updated, err := svc.UpdateGrant(context.Background(), models.RolePartner, "g-1", &services.UpdateGrantRequest{
		HasAccess: false,
		ExpiresAt: &expiry,
	})
	if err != nil {
		t.Fatalf("UpdateGrant failed: %v", err)
	}
	if updated.HasAccess {
		t.Error("expected has_access to flip off")
	}
	if updated.ExpiresAt == nil || !updated.ExpiresAt.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, updated.ExpiresAt)
	}

	_, err = svc.UpdateGrant(context.Background(), models.RolePartner, "missing", &services.UpdateGrantRequest{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing grant, got %v", err)
	}
}

func TestRevokeGrant(t *testing.T) {
	repo := newFakeGrantRepo()
	repo.grants["g-1"] = models.AccessGrant{ID: "g-1", UserID: "user-1", ProjectID: "p-1", HasAccess: true}
	svc := newTestAccessService(repo)

	if err := svc.RevokeGrant(context.Background(), models.RolePartner, "g-1"); err != nil {
		t.Fatalf("RevokeGrant failed: %v", err)
	}
	if len(repo.grants) != 0 {
		t.Errorf("expected grant row removed, %d rows remain", len(repo.grants))
	}

	err := svc.RevokeGrant(context.Background(), models.RolePartner, "g-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for repeated revoke, got %v", err)
	}
}
