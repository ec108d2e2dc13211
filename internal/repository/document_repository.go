package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Document{}, "id = ?", id).Error
}

func (r *DocumentRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}
