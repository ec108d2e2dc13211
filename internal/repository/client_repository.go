package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	query := r.db.WithContext(ctx).Preload("AssignedTo").Where("clients.id = ?", id)
	query = ApplyScope(ctx, query, domain.KindClient)
	if err := query.First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Client{}, "id = ?", id).Error
}

func (r *ClientRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})
	query = ApplyScope(ctx, query, domain.KindClient)

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company_name) LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("AssignedTo").Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&clients).Error

	return clients, total, err
}

func (r *ClientRepository) Count(ctx context.Context) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Client{})
	query = ApplyScope(ctx, query, domain.KindClient)
	err := query.Count(&count).Error
	return int(count), err
}

// ReplaceAssignments sets the client's assignment set, which drives row-level
// scoping for every dependent entity.
func (r *ClientRepository) ReplaceAssignments(ctx context.Context, client *domain.Client, users []domain.User) error {
	return r.db.WithContext(ctx).Model(client).Association("AssignedTo").Replace(users)
}

func (r *ClientRepository) ProjectCount(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Project{}).Where("client_id = ?", clientID).Count(&count).Error
	return int(count), err
}
