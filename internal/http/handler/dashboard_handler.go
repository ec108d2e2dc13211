package handler

import (
	"net/http"

	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

// Metrics returns the role-scoped dashboard numbers
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.Metrics(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// ProjectBoard returns the projects Kanban board
func (h *DashboardHandler) ProjectBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.dashboardService.ProjectBoard(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// TaskBoard returns the tasks Kanban board
func (h *DashboardHandler) TaskBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.dashboardService.TaskBoard(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}
