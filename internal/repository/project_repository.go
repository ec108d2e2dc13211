package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	query := r.db.WithContext(ctx).Preload("Client").Where("projects.id = ?", id)
	query = ApplyScope(ctx, query, domain.KindProject)
	if err := query.First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Project{}, "id = ?", id).Error
}

func (r *ProjectRepository) List(ctx context.Context, page, pageSize int, status domain.ProjectStatus) ([]domain.Project, int64, error) {
	var projects []domain.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Project{})
	query = ApplyScope(ctx, query, domain.KindProject)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Client").Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&projects).Error

	return projects, total, err
}

// ListScoped returns all projects visible to the caller, for board rendering
func (r *ProjectRepository) ListScoped(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	query := r.db.WithContext(ctx).Preload("Client")
	query = ApplyScope(ctx, query, domain.KindProject)
	err := query.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) CountByStatus(ctx context.Context, status domain.ProjectStatus) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Project{}).Where("status = ?", status)
	query = ApplyScope(ctx, query, domain.KindProject)
	err := query.Count(&count).Error
	return int(count), err
}

// UpcomingDeadlines returns scoped projects due within the window
func (r *ProjectRepository) UpcomingDeadlines(ctx context.Context, from, to time.Time) ([]domain.Project, error) {
	var projects []domain.Project
	query := r.db.WithContext(ctx).Preload("Client").
		Where("deadline IS NOT NULL AND deadline >= ? AND deadline <= ?", from, to).
		Where("status <> ?", domain.ProjectStatusCompleted)
	query = ApplyScope(ctx, query, domain.KindProject)
	err := query.Order("deadline ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at ASC").Find(&projects).Error
	return projects, err
}
