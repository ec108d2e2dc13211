package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadBytes  int64
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, maxUploadMB int64, logger *zap.Logger) *DocumentHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &DocumentHandler{
		documentService: documentService,
		maxUploadBytes:  maxUploadMB << 20,
		logger:          logger,
	}
}

// Upload accepts a multipart file with optional project/client/lead linkage
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	projectID, err := formUUID(r, "projectId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	clientID, err := formUUID(r, "clientId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}
	leadID, err := formUUID(r, "leadId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	doc, err := h.documentService.Upload(r.Context(), r.FormValue("title"), header.Filename, file, projectID, clientID, leadID)
	if err != nil {
		h.logger.Error("document upload failed", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// Download streams the stored file
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	rc, doc, err := h.documentService.Download(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Title))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("document stream interrupted", zap.Error(err))
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	if err := h.documentService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// formUUID parses an optional UUID form field
func formUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
