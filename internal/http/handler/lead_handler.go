package handler

import (
	"net/http"

	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService        *service.LeadService
	interactionService *service.InteractionService
	documentService    *service.DocumentService
	logger             *zap.Logger
}

func NewLeadHandler(
	leadService *service.LeadService,
	interactionService *service.InteractionService,
	documentService *service.DocumentService,
	logger *zap.Logger,
) *LeadHandler {
	return &LeadHandler{
		leadService:        leadService,
		interactionService: interactionService,
		documentService:    documentService,
		logger:             logger,
	}
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	status := domain.LeadStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid lead status filter")
		return
	}

	leads, total, err := h.leadService.List(r.Context(), page, pageSize, status)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: leads, Total: total, Page: page, PageSize: pageSize})
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	lead, err := h.leadService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	lead, err := h.leadService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	var req domain.UpdateLeadRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	lead, err := h.leadService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	if err := h.leadService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Convert turns the lead into a client and returns the new client
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	client, err := h.leadService.Convert(r.Context(), id)
	if err != nil {
		h.logger.Warn("lead conversion failed", zap.String("leadID", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

// Interactions lists the lead's interaction history
func (h *LeadHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	interactions, err := h.interactionService.ListByLead(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, interactions)
}

// Documents lists the lead's documents
func (h *LeadHandler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	docs, err := h.documentService.ListByLead(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}
