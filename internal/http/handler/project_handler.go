package handler

import (
	"net/http"

	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService  *service.ProjectService
	taskService     *service.TaskService
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewProjectHandler(
	projectService *service.ProjectService,
	taskService *service.TaskService,
	documentService *service.DocumentService,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectService:  projectService,
		taskService:     taskService,
		documentService: documentService,
		logger:          logger,
	}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	status := domain.ProjectStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid project status filter")
		return
	}

	projects, total, err := h.projectService.List(r.Context(), page, pageSize, status)
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: projects, Total: total, Page: page, PageSize: pageSize})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	var req domain.UpdateProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	project, err := h.projectService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	if err := h.projectService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Tasks lists the project's tasks
func (h *ProjectHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	page, pageSize := pagination(r)
	tasks, total, err := h.taskService.List(r.Context(), page, pageSize, &id, "")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: tasks, Total: total, Page: page, PageSize: pageSize})
}

// Documents lists the project's documents
func (h *ProjectHandler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	docs, err := h.documentService.ListByProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}
