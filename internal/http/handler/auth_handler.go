package handler

import (
	"net/http"

	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, logger: logger}
}

// Login authenticates a user and returns a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}

	resp, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Register creates a staff account. Restricted to privileged users.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}

	dto, err := h.userService.Register(r.Context(), req.Email, req.Password, req.DisplayName, req.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto)
}

// Me returns the calling user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	dto, err := h.userService.Get(r.Context(), user.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto)
}
