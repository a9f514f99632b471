package handler

import (
	"log/slog"
	"net/http"

	"auditdrive/internal/domain/services"
	"auditdrive/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// CreateProject creates a project and provisions its workspace folders
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CreatedBy = httputil.GetUserID(r)

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// ListClientProjects lists a client's projects visible to the caller
// GET /api/clients/{id}/projects
func (h *ProjectHandler) ListClientProjects(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("id")
	if clientID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "client ID is required")
		return
	}

	userID := httputil.GetUserID(r)
	role := httputil.GetRole(r)

	projects, err := h.projectService.ListProjects(r.Context(), clientID, userID, role)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}
