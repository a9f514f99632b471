package handler

import (
	"log/slog"
	"net/http"

	"auditdrive/internal/domain/services"
	"auditdrive/internal/httputil"
)

// GrantHandler handles access grant HTTP requests. Authorization to manage
// grants is enforced in the service, not here.
type GrantHandler struct {
	accessService services.AccessService
	logger        *slog.Logger
}

// NewGrantHandler creates a new grant handler
func NewGrantHandler(accessService services.AccessService, logger *slog.Logger) *GrantHandler {
	return &GrantHandler{
		accessService: accessService,
		logger:        logger,
	}
}

// AddGrant creates a new grant row
// POST /api/grants
func (h *GrantHandler) AddGrant(w http.ResponseWriter, r *http.Request) {
	var req services.AddGrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.accessService.AddGrant(r.Context(), httputil.GetRole(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, grant)
}

// UpdateGrant mutates a grant row in place
// PATCH /api/grants/{id}
func (h *GrantHandler) UpdateGrant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "grant ID is required")
		return
	}

	var req services.UpdateGrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.accessService.UpdateGrant(r.Context(), httputil.GetRole(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grant)
}

// RevokeGrant removes a grant row
// DELETE /api/grants/{id}
func (h *GrantHandler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "grant ID is required")
		return
	}

	if err := h.accessService.RevokeGrant(r.Context(), httputil.GetRole(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProjectGrants lists all grant rows for a project
// GET /api/projects/{id}/grants
func (h *GrantHandler) ListProjectGrants(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	grants, err := h.accessService.ListGrantsForProject(r.Context(), httputil.GetRole(r), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grants)
}

// ListUserGrants lists all grant rows for a user
// GET /api/users/{id}/grants
func (h *GrantHandler) ListUserGrants(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	grants, err := h.accessService.ListGrantsForUser(r.Context(), httputil.GetRole(r), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grants)
}
