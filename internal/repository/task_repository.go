package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	query := r.db.WithContext(ctx).Preload("Project").Preload("Checklist").Where("tasks.id = ?", id)
	query = ApplyScope(ctx, query, domain.KindTask)
	if err := query.First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, page, pageSize int, projectID *uuid.UUID, status domain.TaskStatus) ([]domain.Task, int64, error) {
	var tasks []domain.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Task{})
	query = ApplyScope(ctx, query, domain.KindTask)

	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Project").Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&tasks).Error

	return tasks, total, err
}

// ListScoped returns all tasks visible to the caller, for board rendering
func (r *TaskRepository) ListScoped(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	query := r.db.WithContext(ctx).Preload("Project")
	query = ApplyScope(ctx, query, domain.KindTask)
	err := query.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// Due returns scoped incomplete tasks due within the window, optionally
// narrowed to one assignee.
func (r *TaskRepository) Due(ctx context.Context, from, to time.Time, assignee *uuid.UUID) ([]domain.Task, error) {
	var tasks []domain.Task
	query := r.db.WithContext(ctx).Preload("Project").
		Where("due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", from, to).
		Where("is_completed = ?", false)
	query = ApplyScope(ctx, query, domain.KindTask)
	if assignee != nil {
		query = query.Where("assigned_to_id = ?", *assignee)
	}
	err := query.Order("due_date ASC").Find(&tasks).Error
	return tasks, err
}

// CountOverdue returns the number of scoped incomplete tasks past their due date
func (r *TaskRepository) CountOverdue(ctx context.Context, today time.Time, assignee *uuid.UUID) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("due_date IS NOT NULL AND due_date < ?", today).
		Where("is_completed = ?", false)
	query = ApplyScope(ctx, query, domain.KindTask)
	if assignee != nil {
		query = query.Where("assigned_to_id = ?", *assignee)
	}
	err := query.Count(&count).Error
	return int(count), err
}

func (r *TaskRepository) AddChecklistItem(ctx context.Context, item *domain.TaskChecklist) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *TaskRepository) SetChecklistItemDone(ctx context.Context, itemID uuid.UUID, done bool) error {
	res := r.db.WithContext(ctx).Model(&domain.TaskChecklist{}).
		Where("id = ?", itemID).
		UpdateColumn("is_done", done)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
