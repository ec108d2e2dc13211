package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService handles business logic for tasks and their checklists.
// Every task mutation runs its derived-state recomputes (completion shadow,
// project progress) inside the same transaction.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	engine      *DerivedStateEngine
	logger      *zap.Logger
	db          *gorm.DB
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	projectRepo *repository.ProjectRepository,
	engine *DerivedStateEngine,
	logger *zap.Logger,
	db *gorm.DB,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		engine:      engine,
		logger:      logger,
		db:          db,
	}
}

// Create creates a task and recomputes the owning project's progress
func (s *TaskService) Create(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	if req.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: task requires a project", ErrInvalidInput)
	}

	// Verify the project exists and is visible to the caller
	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify project: %w", err)
	}

	status := req.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	task := &domain.Task{
		ProjectID:    project.ID,
		Name:         req.Name,
		AssignedToID: req.AssignedToID,
		Status:       status,
		Priority:     priority,
		DueDate:      req.DueDate,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if err := s.engine.SyncTaskCompletion(ctx, tx, task.ID); err != nil {
			return err
		}
		return s.engine.RecomputeProjectProgress(ctx, tx, task.ProjectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		zap.String("taskID", task.ID.String()),
		zap.String("projectID", task.ProjectID.String()),
		zap.String("status", string(task.Status)),
	)

	// Re-read so the DTO reflects the synced shadow field
	task, err = s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, task), nil
}

// Update applies partial changes to a task. The completion shadow and the
// project progress are re-derived whichever fields changed, so a caller that
// flips is_completed without touching status still ends up consistent.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTaskRequest) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.AssignedToID != nil {
		task.AssignedToID = req.AssignedToID
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Project", "Checklist", "AssignedTo").Save(task).Error; err != nil {
			return err
		}
		if err := s.engine.SyncTaskCompletion(ctx, tx, task.ID); err != nil {
			return err
		}
		return s.engine.RecomputeProjectProgress(ctx, tx, task.ProjectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	// Re-read so the DTO reflects the synced shadow field
	task, err = s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, task), nil
}

// SetStatus moves a task between board columns (Kanban drag)
func (s *TaskService) SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) (*domain.TaskDTO, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, status)
	}
	return s.Update(ctx, id, &domain.UpdateTaskRequest{Status: &status})
}

// Delete removes a task and recomputes the project's progress
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Task{}, "id = ?", id).Error; err != nil {
			return err
		}
		return s.engine.RecomputeProjectProgress(ctx, tx, task.ProjectID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task deleted",
		zap.String("taskID", id.String()),
		zap.String("projectID", task.ProjectID.String()),
	)
	return nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.toDTO(ctx, task), nil
}

func (s *TaskService) List(ctx context.Context, page, pageSize int, projectID *uuid.UUID, status domain.TaskStatus) ([]domain.TaskDTO, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, page, pageSize, projectID, status)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = *s.toDTO(ctx, &tasks[i])
	}
	return dtos, total, nil
}

// AddChecklistItem attaches an informational checklist item to a task.
// Checklist items never feed progress derivation.
func (s *TaskService) AddChecklistItem(ctx context.Context, taskID uuid.UUID, req *domain.CreateChecklistItemRequest) (*domain.TaskChecklistDTO, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	item := &domain.TaskChecklist{
		TaskID:   taskID,
		ItemName: req.ItemName,
	}
	if err := s.taskRepo.AddChecklistItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add checklist item: %w", err)
	}

	return &domain.TaskChecklistDTO{
		ID:       item.ID,
		TaskID:   item.TaskID,
		ItemName: item.ItemName,
		IsDone:   item.IsDone,
	}, nil
}

// SetChecklistItemDone toggles a checklist item
func (s *TaskService) SetChecklistItemDone(ctx context.Context, itemID uuid.UUID, done bool) error {
	if err := s.taskRepo.SetChecklistItemDone(ctx, itemID, done); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *TaskService) toDTO(ctx context.Context, task *domain.Task) *domain.TaskDTO {
	dto := &domain.TaskDTO{
		ID:           task.ID,
		ProjectID:    task.ProjectID,
		Name:         task.Name,
		AssignedToID: task.AssignedToID,
		Status:       task.Status,
		Priority:     task.Priority,
		IsCompleted:  task.IsCompleted,
	}
	if task.Project != nil {
		dto.ProjectName = task.Project.Name
	}
	if task.DueDate != nil {
		d := task.DueDate.Format("2006-01-02")
		dto.DueDate = &d
	}
	return dto
}
