package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var tx domain.Transaction
	query := r.db.WithContext(ctx).Where("transactions.id = ?", id)
	query = ApplyScope(ctx, query, domain.KindTransaction)
	if err := query.First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) List(ctx context.Context, page, pageSize int, txType domain.TransactionType) ([]domain.Transaction, int64, error) {
	var transactions []domain.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Transaction{})
	query = ApplyScope(ctx, query, domain.KindTransaction)

	if txType != "" {
		query = query.Where("transaction_type = ?", txType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("date DESC").Find(&transactions).Error

	return transactions, total, err
}

// SumByType returns the scoped total for one transaction type
func (r *TransactionRepository) SumByType(ctx context.Context, txType domain.TransactionType) (float64, error) {
	var total float64
	query := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_type = ?", txType)
	query = ApplyScope(ctx, query, domain.KindTransaction)
	err := query.Scan(&total).Error
	return total, err
}

// SumByTypeInWindow returns the scoped total for one type within [from, to)
func (r *TransactionRepository) SumByTypeInWindow(ctx context.Context, txType domain.TransactionType, from, to time.Time) (float64, error) {
	var total float64
	query := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_type = ? AND date >= ? AND date < ?", txType, from, to)
	query = ApplyScope(ctx, query, domain.KindTransaction)
	err := query.Scan(&total).Error
	return total, err
}

// RecentPayments returns the latest INCOME transactions for a client,
// newest first. Used for invoice rendering.
func (r *TransactionRepository) RecentPayments(ctx context.Context, clientID uuid.UUID, limit int) ([]domain.Transaction, error) {
	var payments []domain.Transaction
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND transaction_type = ?", clientID, domain.TransactionIncome).
		Order("date DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
