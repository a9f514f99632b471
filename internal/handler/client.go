package handler

import (
	"log/slog"
	"net/http"

	"auditdrive/internal/domain/services"
	"auditdrive/internal/httputil"
)

// ClientHandler handles client HTTP requests
type ClientHandler struct {
	clientService services.ClientService
	logger        *slog.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService services.ClientService, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// RegisterClient creates a new client
// POST /api/clients
func (h *ClientHandler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterClientRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CreatedBy = httputil.GetUserID(r)

	client, err := h.clientService.RegisterClient(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, client)
}

// ListClients retrieves all active clients
// GET /api/clients
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientService.ListClients(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, clients)
}

// DeleteClient soft-deletes a client
// DELETE /api/clients/{id}
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "client ID is required")
		return
	}

	if err := h.clientService.DeleteClient(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
