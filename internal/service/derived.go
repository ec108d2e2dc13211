package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DerivedStateEngine owns the recomputation rules that keep aggregate fields
// consistent with their source records. Each rule is an explicit, named
// operation invoked synchronously by the mutation path, inside the mutating
// transaction, so a reader never observes a source change without its
// aggregate or vice versa.
//
// Every rule is idempotent (a full re-aggregation, never a cached delta) and
// treats a missing parent row as a silent no-op: a recompute must never
// abort the mutation that triggered it.
type DerivedStateEngine struct {
	logger *zap.Logger
}

func NewDerivedStateEngine(logger *zap.Logger) *DerivedStateEngine {
	return &DerivedStateEngine{logger: logger}
}

// lockForUpdate takes a row lock on the aggregate owner so concurrent
// re-aggregations serialize. sqlite has no FOR UPDATE; its single-writer
// model serializes transactions anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// RecomputeProjectProgress recalculates a project's progress percentage from
// its tasks: floor(done * 100 / total), 0 when the project has no tasks.
// The value is written back only when it changed.
func (e *DerivedStateEngine) RecomputeProjectProgress(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	var project domain.Project
	err := lockForUpdate(tx.WithContext(ctx)).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Parent deleted mid-flight; nothing to recompute.
		return nil
	}
	if err != nil {
		return err
	}

	var total, done int64
	if err := tx.WithContext(ctx).Model(&domain.Task{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Model(&domain.Task{}).
		Where("project_id = ? AND status = ?", projectID, domain.TaskStatusDone).
		Count(&done).Error; err != nil {
		return err
	}

	progress := 0
	if total > 0 {
		progress = int(done * 100 / total)
	}

	if progress == project.ProgressPercentage {
		return nil
	}

	e.logger.Debug("project progress recomputed",
		zap.String("projectID", projectID.String()),
		zap.Int("from", project.ProgressPercentage),
		zap.Int("to", progress),
	)

	return tx.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("progress_percentage", progress).Error
}

// SyncTaskCompletion enforces the invariant is_completed == (status == DONE)
// whichever field the caller mutated. The write touches only the shadow
// column so unrelated side effects are not re-triggered.
func (e *DerivedStateEngine) SyncTaskCompletion(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error {
	var task domain.Task
	err := tx.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	expected := task.Status == domain.TaskStatusDone
	if task.IsCompleted == expected {
		return nil
	}

	return tx.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", taskID).
		UpdateColumn("is_completed", expected).Error
}

// RecomputeClientPaidAmount recalculates a client's paid amount from INCOME
// transactions:
//
//	direct income:  transactions linked to the client itself
//	project income: transactions on the client's projects whose own client
//	                link is absent
//
// Excluding client-linked rows from the project side keeps a transaction
// that carries both links from being counted twice. Only paid_amount is
// persisted (partial write).
func (e *DerivedStateEngine) RecomputeClientPaidAmount(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) error {
	var client domain.Client
	err := lockForUpdate(tx.WithContext(ctx)).First(&client, "id = ?", clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var directIncome float64
	if err := tx.WithContext(ctx).Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("client_id = ? AND transaction_type = ?", clientID, domain.TransactionIncome).
		Scan(&directIncome).Error; err != nil {
		return err
	}

	var projectIncome float64
	if err := tx.WithContext(ctx).Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("client_id IS NULL AND transaction_type = ?", domain.TransactionIncome).
		Where("project_id IN (SELECT id FROM projects WHERE client_id = ?)", clientID).
		Scan(&projectIncome).Error; err != nil {
		return err
	}

	paid := directIncome + projectIncome
	if paid == client.PaidAmount {
		return nil
	}

	e.logger.Debug("client paid amount recomputed",
		zap.String("clientID", clientID.String()),
		zap.Float64("from", client.PaidAmount),
		zap.Float64("to", paid),
	)

	return tx.WithContext(ctx).Model(&domain.Client{}).
		Where("id = ?", clientID).
		UpdateColumn("paid_amount", paid).Error
}

// ResolveAffectedClient determines which client a transaction feeds: its
// direct client link if set, else the client of its linked project. Returns
// nil when neither resolves (including a dangling project reference).
func (e *DerivedStateEngine) ResolveAffectedClient(ctx context.Context, tx *gorm.DB, txn *domain.Transaction) (*uuid.UUID, error) {
	if txn.ClientID != nil {
		return txn.ClientID, nil
	}
	if txn.ProjectID == nil {
		return nil, nil
	}

	var project domain.Project
	err := tx.WithContext(ctx).Select("id", "client_id").First(&project, "id = ?", *txn.ProjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project.ClientID, nil
}
