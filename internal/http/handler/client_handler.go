package handler

import (
	"fmt"
	"net/http"

	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService      *service.ClientService
	projectService     *service.ProjectService
	interactionService *service.InteractionService
	documentService    *service.DocumentService
	logger             *zap.Logger
}

func NewClientHandler(
	clientService *service.ClientService,
	projectService *service.ProjectService,
	interactionService *service.InteractionService,
	documentService *service.DocumentService,
	logger *zap.Logger,
) *ClientHandler {
	return &ClientHandler{
		clientService:      clientService,
		projectService:     projectService,
		interactionService: interactionService,
		documentService:    documentService,
		logger:             logger,
	}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	search := r.URL.Query().Get("search")

	clients, total, err := h.clientService.List(r.Context(), page, pageSize, search)
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: clients, Total: total, Page: page, PageSize: pageSize})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	client, err := h.clientService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	var req domain.UpdateClientRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	if err := h.clientService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Metrics returns the cached financial widget for one client
func (h *ClientHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	metrics, err := h.clientService.Metrics(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// Projects lists the client's projects
func (h *ClientHandler) Projects(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	projects, err := h.projectService.ListByClient(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// Interactions lists the client's interaction history
func (h *ClientHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	interactions, err := h.interactionService.ListByClient(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, interactions)
}

// Documents lists the client's documents
func (h *ClientHandler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	docs, err := h.documentService.ListByClient(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// Invoice streams the client's invoice PDF
func (h *ClientHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	data, number, err := h.clientService.Invoice(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to render invoice", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", number+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
