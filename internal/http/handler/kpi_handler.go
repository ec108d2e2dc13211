package handler

import (
	"net/http"
	"time"

	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type KPIHandler struct {
	kpiService *service.KPIService
	logger     *zap.Logger
}

func NewKPIHandler(kpiService *service.KPIService, logger *zap.Logger) *KPIHandler {
	return &KPIHandler{kpiService: kpiService, logger: logger}
}

// queryMonth reads the month query parameter, defaulting to the current month
func queryMonth(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return service.ParseMonth(raw)
}

// Scorecard returns the monthly scorecard for one staff member. Agents may
// only view their own; managers may view anyone's.
func (h *KPIHandler) Scorecard(w http.ResponseWriter, r *http.Request) {
	staffID, err := urlUUID(r, "staffId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid staff ID")
		return
	}
	month, err := queryMonth(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Month must be formatted YYYY-MM")
		return
	}

	user := auth.MustFromContext(r.Context())
	if !user.IsPrivileged() && user.UserID != staffID {
		respondWithError(w, http.StatusForbidden, "You may only view your own scorecard")
		return
	}

	card, err := h.kpiService.Scorecard(r.Context(), staffID, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// Scorecards returns all staff scorecards for a month (managers only,
// enforced by the router).
func (h *KPIHandler) Scorecards(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Month must be formatted YYYY-MM")
		return
	}
	cards, err := h.kpiService.ScorecardsForMonth(r.Context(), month)
	if err != nil {
		h.logger.Error("failed to build scorecards", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// CreateTarget sets monthly targets for a staff member (managers only)
func (h *KPIHandler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateKPITargetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}

	user := auth.MustFromContext(r.Context())
	target, err := h.kpiService.CreateTarget(r.Context(), &req, user.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, target)
}

func (h *KPIHandler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}
	var req domain.UpdateKPITargetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	target, err := h.kpiService.UpdateTarget(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, target)
}

func (h *KPIHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}
	if err := h.kpiService.DeleteTarget(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
