package handler

import (
	"net/http"
	"strconv"

	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
	logger             *zap.Logger
}

func NewInteractionHandler(interactionService *service.InteractionService, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{interactionService: interactionService, logger: logger}
}

func (h *InteractionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInteractionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	interaction, err := h.interactionService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to record interaction", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, interaction)
}

// Recent returns the latest interactions visible to the caller
func (h *InteractionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	interactions, err := h.interactionService.Recent(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, interactions)
}
