package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	query := r.db.WithContext(ctx).Where("leads.id = ?", id)
	query = ApplyScope(ctx, query, domain.KindLead)
	if err := query.First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Lead{}, "id = ?", id).Error
}

func (r *LeadRepository) List(ctx context.Context, page, pageSize int, status domain.LeadStatus) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	query = ApplyScope(ctx, query, domain.KindLead)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&leads).Error

	return leads, total, err
}

func (r *LeadRepository) Count(ctx context.Context) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	query = ApplyScope(ctx, query, domain.KindLead)
	err := query.Count(&count).Error
	return int(count), err
}

// CountByStatus returns scoped lead counts grouped by status
func (r *LeadRepository) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int, error) {
	type row struct {
		Status domain.LeadStatus
		Count  int
	}
	var rows []row

	query := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("status, COUNT(*) as count").
		Group("status")
	query = ApplyScope(ctx, query, domain.KindLead)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.LeadStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// DueFollowUps returns leads whose next follow-up falls on the given day,
// with their assignee preloaded. Used by the reminder job; unscoped on
// purpose since the job acts on behalf of the system.
func (r *LeadRepository) DueFollowUps(ctx context.Context, day time.Time) ([]domain.Lead, error) {
	var leads []domain.Lead
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Where("next_follow_up >= ? AND next_follow_up < ?", start, end).
		Where("status <> ?", domain.LeadStatusConverted).
		Find(&leads).Error
	return leads, err
}
