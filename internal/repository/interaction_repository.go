package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Create(ctx context.Context, interaction *domain.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

func (r *InteractionRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&interactions).Error
	return interactions, err
}

func (r *InteractionRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&interactions).Error
	return interactions, err
}

// Recent returns the latest interactions on clients the caller may see.
// Privileged callers get the latest across the whole store.
func (r *InteractionRepository) Recent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	query := r.db.WithContext(ctx).Preload("Client").Preload("Lead").Preload("CreatedBy")

	if user, ok := auth.FromContext(ctx); ok && !user.IsPrivileged() {
		query = query.Where(
			"client_id IN (SELECT client_id FROM client_assignments WHERE user_id = ?)",
			user.UserID,
		)
	}

	err := query.Order("created_at DESC").Limit(limit).Find(&interactions).Error
	return interactions, err
}
