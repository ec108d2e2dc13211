package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/cache"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionService handles money movements. Every INCOME mutation
// recomputes the affected client's paid_amount inside the same transaction
// and invalidates that client's cached metrics afterward.
type TransactionService struct {
	txRepo      *repository.TransactionRepository
	clientRepo  *repository.ClientRepository
	projectRepo *repository.ProjectRepository
	engine      *DerivedStateEngine
	cache       *cache.Cache
	logger      *zap.Logger
	db          *gorm.DB
}

func NewTransactionService(
	txRepo *repository.TransactionRepository,
	clientRepo *repository.ClientRepository,
	projectRepo *repository.ProjectRepository,
	engine *DerivedStateEngine,
	metricsCache *cache.Cache,
	logger *zap.Logger,
	db *gorm.DB,
) *TransactionService {
	return &TransactionService{
		txRepo:      txRepo,
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		engine:      engine,
		cache:       metricsCache,
		logger:      logger,
		db:          db,
	}
}

// Create records a transaction. Amount must be positive and at least one of
// client or project must be linked.
func (s *TransactionService) Create(ctx context.Context, req *domain.CreateTransactionRequest) (*domain.TransactionDTO, error) {
	if req.Amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if req.ClientID == nil && req.ProjectID == nil {
		return nil, ErrMissingLinkage
	}

	// Linked rows must exist and be visible to the caller
	if req.ClientID != nil {
		if _, err := s.clientRepo.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client not found", ErrNotFound)
			}
			return nil, err
		}
	}
	if req.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: project not found", ErrNotFound)
			}
			return nil, err
		}
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	txn := &domain.Transaction{
		ProjectID:       req.ProjectID,
		ClientID:        req.ClientID,
		TransactionType: req.TransactionType,
		Amount:          req.Amount,
		Date:            date,
		Description:     req.Description,
	}
	if user, ok := auth.FromContext(ctx); ok {
		txn.CreatedByID = &user.UserID
	}

	var affected *uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		if txn.TransactionType != domain.TransactionIncome {
			return nil
		}
		clientID, err := s.engine.ResolveAffectedClient(ctx, tx, txn)
		if err != nil {
			return err
		}
		if clientID == nil {
			return nil
		}
		affected = clientID
		return s.engine.RecomputeClientPaidAmount(ctx, tx, *clientID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.invalidateMetrics(affected)
	s.logger.Info("transaction recorded",
		zap.String("transactionID", txn.ID.String()),
		zap.String("type", string(txn.TransactionType)),
		zap.Float64("amount", txn.Amount),
	)
	return s.toDTO(txn), nil
}

// Update edits a transaction. Linkage or type changes can shift income
// between clients, so both the previously-affected and the newly-affected
// client are re-derived inside the same transaction.
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTransactionRequest) (*domain.TransactionDTO, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	orig := *txn

	if req.Amount != nil && *req.Amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if req.ClientID != nil {
		if _, err := s.clientRepo.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client not found", ErrNotFound)
			}
			return nil, err
		}
		txn.ClientID = req.ClientID
	}
	if req.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: project not found", ErrNotFound)
			}
			return nil, err
		}
		txn.ProjectID = req.ProjectID
	}
	if req.TransactionType != nil {
		txn.TransactionType = *req.TransactionType
	}
	if req.Amount != nil {
		txn.Amount = *req.Amount
	}
	if req.Date != nil {
		txn.Date = *req.Date
	}
	if req.Description != nil {
		txn.Description = *req.Description
	}

	var before, after *uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if orig.TransactionType == domain.TransactionIncome {
			clientID, err := s.engine.ResolveAffectedClient(ctx, tx, &orig)
			if err != nil {
				return err
			}
			before = clientID
		}
		if err := tx.Omit("Project", "Client", "CreatedBy").Save(txn).Error; err != nil {
			return err
		}
		if txn.TransactionType == domain.TransactionIncome {
			clientID, err := s.engine.ResolveAffectedClient(ctx, tx, txn)
			if err != nil {
				return err
			}
			after = clientID
		}
		if before != nil {
			if err := s.engine.RecomputeClientPaidAmount(ctx, tx, *before); err != nil {
				return err
			}
		}
		if after != nil && (before == nil || *after != *before) {
			if err := s.engine.RecomputeClientPaidAmount(ctx, tx, *after); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.invalidateMetrics(before)
	if after != nil && (before == nil || *after != *before) {
		s.invalidateMetrics(after)
	}
	s.logger.Info("transaction updated",
		zap.String("transactionID", txn.ID.String()),
		zap.String("type", string(txn.TransactionType)),
		zap.Float64("amount", txn.Amount),
	)
	return s.toDTO(txn), nil
}

// Delete removes a transaction and re-derives the affected client's
// paid_amount from the remaining rows.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var affected *uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Resolve the client before the row disappears
		if txn.TransactionType == domain.TransactionIncome {
			clientID, err := s.engine.ResolveAffectedClient(ctx, tx, txn)
			if err != nil {
				return err
			}
			affected = clientID
		}
		if err := tx.Delete(&domain.Transaction{}, "id = ?", id).Error; err != nil {
			return err
		}
		if affected == nil {
			return nil
		}
		return s.engine.RecomputeClientPaidAmount(ctx, tx, *affected)
	})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.invalidateMetrics(affected)
	s.logger.Info("transaction deleted", zap.String("transactionID", id.String()))
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*domain.TransactionDTO, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.toDTO(txn), nil
}

func (s *TransactionService) List(ctx context.Context, page, pageSize int, txType domain.TransactionType) ([]domain.TransactionDTO, int64, error) {
	txns, total, err := s.txRepo.List(ctx, page, pageSize, txType)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.TransactionDTO, len(txns))
	for i := range txns {
		dtos[i] = *s.toDTO(&txns[i])
	}
	return dtos, total, nil
}

func (s *TransactionService) invalidateMetrics(clientID *uuid.UUID) {
	if clientID == nil || s.cache == nil {
		return
	}
	s.cache.Invalidate(cache.ClientMetricsKey(*clientID))
}

func (s *TransactionService) toDTO(txn *domain.Transaction) *domain.TransactionDTO {
	return &domain.TransactionDTO{
		ID:              txn.ID,
		ProjectID:       txn.ProjectID,
		ClientID:        txn.ClientID,
		TransactionType: txn.TransactionType,
		Amount:          txn.Amount,
		Date:            txn.Date.Format("2006-01-02"),
		Description:     txn.Description,
		CreatedByID:     txn.CreatedByID,
	}
}
