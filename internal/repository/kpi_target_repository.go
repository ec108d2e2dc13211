package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type KPITargetRepository struct {
	db *gorm.DB
}

func NewKPITargetRepository(db *gorm.DB) *KPITargetRepository {
	return &KPITargetRepository{db: db}
}

func (r *KPITargetRepository) Create(ctx context.Context, target *domain.KPITarget) error {
	return r.db.WithContext(ctx).Create(target).Error
}

func (r *KPITargetRepository) Update(ctx context.Context, target *domain.KPITarget) error {
	return r.db.WithContext(ctx).Save(target).Error
}

func (r *KPITargetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.KPITarget{}, "id = ?", id).Error
}

func (r *KPITargetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.KPITarget, error) {
	var target domain.KPITarget
	if err := r.db.WithContext(ctx).Preload("Staff").First(&target, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

// GetByStaffMonth finds the target row for one (staff, month) pair.
// month must be normalized to the first day of the month.
func (r *KPITargetRepository) GetByStaffMonth(ctx context.Context, staffID uuid.UUID, month time.Time) (*domain.KPITarget, error) {
	var target domain.KPITarget
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("staff_id = ? AND month = ?", staffID, month).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// ListForMonth returns every staff target row for the given month
func (r *KPITargetRepository) ListForMonth(ctx context.Context, month time.Time) ([]domain.KPITarget, error) {
	var targets []domain.KPITarget
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("month = ?", month).
		Order("created_at ASC").
		Find(&targets).Error
	return targets, err
}
