package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MonthWindow returns the half-open interval [start, end) covering the
// calendar month containing t, in t's location.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// MonthStart normalizes t to the first day of its month
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Pct computes the achieved percentage of a target, capped at 100.
// A zero target with zero actual scores 0; a zero target with any
// positive actual scores 100.
func Pct(actual, target float64) int {
	if target <= 0 {
		if actual > 0 {
			return 100
		}
		return 0
	}
	pct := int(actual * 100 / target)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// KPIService computes monthly per-staff performance figures. All actuals
// are re-derived from source rows on every call; nothing is stored.
type KPIService struct {
	targetRepo *repository.KPITargetRepository
	userRepo   *repository.UserRepository
	logger     *zap.Logger
	db         *gorm.DB
}

func NewKPIService(
	targetRepo *repository.KPITargetRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *KPIService {
	return &KPIService{
		targetRepo: targetRepo,
		userRepo:   userRepo,
		logger:     logger,
		db:         db,
	}
}

// Actuals computes the actual figures for one staff member in the month
// containing month. Each figure uses its own anchor date: lead conversions
// by converted_at, task completions by due_date, interactions by created_at
// and revenue by transaction date.
func (s *KPIService) Actuals(ctx context.Context, staffID uuid.UUID, month time.Time) (*domain.KPIActuals, error) {
	from, to := MonthWindow(month)
	actuals := &domain.KPIActuals{}

	var leads int64
	err := s.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("assigned_to_id = ?", staffID).
		Where("status = ?", domain.LeadStatusConverted).
		Where("converted_at >= ? AND converted_at < ?", from, to).
		Count(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count converted leads: %w", err)
	}
	actuals.Leads = int(leads)

	var tasks int64
	err = s.db.WithContext(ctx).Model(&domain.Task{}).
		Where("assigned_to_id = ?", staffID).
		Where("is_completed = ?", true).
		Where("due_date >= ? AND due_date < ?", from, to).
		Count(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	actuals.Tasks = int(tasks)

	var interactions int64
	err = s.db.WithContext(ctx).Model(&domain.Interaction{}).
		Where("created_by_id = ?", staffID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&interactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}
	actuals.Interactions = int(interactions)

	var revenue float64
	err = s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("created_by_id = ?", staffID).
		Where("transaction_type = ?", domain.TransactionIncome).
		Where("date >= ? AND date < ?", from, to).
		Scan(&revenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	actuals.Revenue = revenue

	return actuals, nil
}

// Scorecard builds the monthly scorecard for one staff member. A missing
// target row yields zero targets, so actual activity still shows up.
func (s *KPIService) Scorecard(ctx context.Context, staffID uuid.UUID, month time.Time) (*domain.KPIScorecard, error) {
	staff, err := s.userRepo.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	actuals, err := s.Actuals(ctx, staffID, month)
	if err != nil {
		return nil, err
	}

	target := &domain.KPITarget{}
	existing, err := s.targetRepo.GetByStaffMonth(ctx, staffID, MonthStart(month))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		target = existing
	}

	return s.buildScorecard(staff, month, actuals, target), nil
}

// ScorecardsForMonth builds a scorecard for every staff member with a
// target set in the month. Staff without targets are omitted.
func (s *KPIService) ScorecardsForMonth(ctx context.Context, month time.Time) ([]domain.KPIScorecard, error) {
	targets, err := s.targetRepo.ListForMonth(ctx, MonthStart(month))
	if err != nil {
		return nil, err
	}

	cards := make([]domain.KPIScorecard, 0, len(targets))
	for i := range targets {
		target := &targets[i]
		staff := target.Staff
		if staff == nil {
			staff, err = s.userRepo.GetByID(ctx, target.StaffID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return nil, err
			}
		}
		actuals, err := s.Actuals(ctx, target.StaffID, month)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *s.buildScorecard(staff, month, actuals, target))
	}
	return cards, nil
}

func (s *KPIService) buildScorecard(staff *domain.User, month time.Time, actuals *domain.KPIActuals, target *domain.KPITarget) *domain.KPIScorecard {
	metrics := []domain.KPIMetric{
		{
			Label:  "Leads converted",
			Actual: float64(actuals.Leads),
			Target: float64(target.TargetLeads),
			Pct:    Pct(float64(actuals.Leads), float64(target.TargetLeads)),
		},
		{
			Label:  "Tasks completed",
			Actual: float64(actuals.Tasks),
			Target: float64(target.TargetTasks),
			Pct:    Pct(float64(actuals.Tasks), float64(target.TargetTasks)),
		},
		{
			Label:  "Interactions logged",
			Actual: float64(actuals.Interactions),
			Target: float64(target.TargetInteractions),
			Pct:    Pct(float64(actuals.Interactions), float64(target.TargetInteractions)),
		},
		{
			Label:  "Revenue",
			Actual: actuals.Revenue,
			Target: target.TargetRevenue,
			Pct:    Pct(actuals.Revenue, target.TargetRevenue),
		},
	}

	sum := 0
	for _, m := range metrics {
		sum += m.Pct
	}

	return &domain.KPIScorecard{
		StaffID:    staff.ID,
		StaffName:  staff.DisplayName,
		Month:      MonthStart(month).Format("2006-01"),
		Metrics:    metrics,
		OverallPct: sum / len(metrics),
	}
}

// CreateTarget sets the monthly targets for one staff member. At most one
// target row exists per (staff, month).
func (s *KPIService) CreateTarget(ctx context.Context, req *domain.CreateKPITargetRequest, createdBy uuid.UUID) (*domain.KPITarget, error) {
	month, err := ParseMonth(req.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.userRepo.GetByID(ctx, req.StaffID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: staff member not found", ErrNotFound)
		}
		return nil, err
	}

	if existing, err := s.targetRepo.GetByStaffMonth(ctx, req.StaffID, month); err == nil && existing != nil {
		return nil, ErrTargetExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	target := &domain.KPITarget{
		StaffID:            req.StaffID,
		Month:              month,
		TargetLeads:        req.TargetLeads,
		TargetTasks:        req.TargetTasks,
		TargetInteractions: req.TargetInteractions,
		TargetRevenue:      req.TargetRevenue,
		Notes:              req.Notes,
		CreatedByID:        &createdBy,
	}
	if err := s.targetRepo.Create(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to create KPI target: %w", err)
	}

	s.logger.Info("KPI target created",
		zap.String("staffID", target.StaffID.String()),
		zap.String("month", target.Month.Format("2006-01")),
	)
	return target, nil
}

func (s *KPIService) UpdateTarget(ctx context.Context, id uuid.UUID, req *domain.UpdateKPITargetRequest) (*domain.KPITarget, error) {
	target, err := s.targetRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.TargetLeads != nil {
		target.TargetLeads = *req.TargetLeads
	}
	if req.TargetTasks != nil {
		target.TargetTasks = *req.TargetTasks
	}
	if req.TargetInteractions != nil {
		target.TargetInteractions = *req.TargetInteractions
	}
	if req.TargetRevenue != nil {
		target.TargetRevenue = *req.TargetRevenue
	}
	if req.Notes != nil {
		target.Notes = *req.Notes
	}

	if err := s.targetRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update KPI target: %w", err)
	}
	return target, nil
}

func (s *KPIService) DeleteTarget(ctx context.Context, id uuid.UUID) error {
	if _, err := s.targetRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.targetRepo.Delete(ctx, id)
}

// ParseMonth parses a YYYY-MM string into the first day of that month (UTC)
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be formatted YYYY-MM: %w", err)
	}
	return t, nil
}
