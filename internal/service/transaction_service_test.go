package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/service"
	"github.com/techvilo/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTransactionService(db *gorm.DB) *service.TransactionService {
	return service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewClientRepository(db),
		repository.NewProjectRepository(db),
		service.NewDerivedStateEngine(zap.NewNop()),
		nil,
		zap.NewNop(),
		db,
	)
}

func paidAmount(t *testing.T, db *gorm.DB, clientID uuid.UUID) float64 {
	t.Helper()
	var client domain.Client
	require.NoError(t, db.First(&client, "id = ?", clientID).Error)
	return client.PaidAmount
}

func TestTransactionCreateValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateTransactionRequest{
			ClientID:        &client.ID,
			TransactionType: domain.TransactionIncome,
			Amount:          0,
		})
		assert.ErrorIs(t, err, service.ErrNonPositiveAmount)

		_, err = svc.Create(ctx, &domain.CreateTransactionRequest{
			ClientID:        &client.ID,
			TransactionType: domain.TransactionExpense,
			Amount:          -50,
		})
		assert.ErrorIs(t, err, service.ErrNonPositiveAmount)
	})

	t.Run("needs a client or project link", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateTransactionRequest{
			TransactionType: domain.TransactionIncome,
			Amount:          100,
		})
		assert.ErrorIs(t, err, service.ErrMissingLinkage)
	})

	t.Run("linked client must exist", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Create(ctx, &domain.CreateTransactionRequest{
			ClientID:        &ghost,
			TransactionType: domain.TransactionIncome,
			Amount:          100,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestTransactionIncomeUpdatesPaidAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")

	_, err := svc.Create(ctx, &domain.CreateTransactionRequest{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          1000,
		Description:     "first invoice",
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, paidAmount(t, db, client.ID))

	// Project-linked income rolls up through the project's client
	_, err = svc.Create(ctx, &domain.CreateTransactionRequest{
		ProjectID:       &project.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          500,
	})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, paidAmount(t, db, client.ID))

	// Expenses never touch paid_amount
	_, err = svc.Create(ctx, &domain.CreateTransactionRequest{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionExpense,
		Amount:          300,
	})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, paidAmount(t, db, client.ID))
}

func TestTransactionUpdateRecomputesBothClients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := managerCtx(t, db)

	alpha := testutil.CreateTestClient(t, db, "Alpha")
	beta := testutil.CreateTestClient(t, db, "Beta")

	txn, err := svc.Create(ctx, &domain.CreateTransactionRequest{
		ClientID:        &alpha.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          600,
	})
	require.NoError(t, err)
	require.Equal(t, 600.0, paidAmount(t, db, alpha.ID))

	// Moving the income to another client re-derives both sides
	updated, err := svc.Update(ctx, txn.ID, &domain.UpdateTransactionRequest{ClientID: &beta.ID})
	require.NoError(t, err)
	assert.Equal(t, &beta.ID, updated.ClientID)
	assert.Equal(t, 0.0, paidAmount(t, db, alpha.ID))
	assert.Equal(t, 600.0, paidAmount(t, db, beta.ID))

	// Amount changes flow through to the linked client
	amount := 250.0
	_, err = svc.Update(ctx, txn.ID, &domain.UpdateTransactionRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 250.0, paidAmount(t, db, beta.ID))

	// Reclassifying as an expense removes it from paid_amount
	expense := domain.TransactionExpense
	_, err = svc.Update(ctx, txn.ID, &domain.UpdateTransactionRequest{TransactionType: &expense})
	require.NoError(t, err)
	assert.Equal(t, 0.0, paidAmount(t, db, beta.ID))

	t.Run("amount must stay positive", func(t *testing.T) {
		bad := -10.0
		_, err := svc.Update(ctx, txn.ID, &domain.UpdateTransactionRequest{Amount: &bad})
		assert.ErrorIs(t, err, service.ErrNonPositiveAmount)
	})

	t.Run("unknown transaction reports not found", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), &domain.UpdateTransactionRequest{})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("relinked client must exist", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Update(ctx, txn.ID, &domain.UpdateTransactionRequest{ClientID: &ghost})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestTransactionDeleteRecomputes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")

	first, err := svc.Create(ctx, &domain.CreateTransactionRequest{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          800,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &domain.CreateTransactionRequest{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          200,
	})
	require.NoError(t, err)
	require.Equal(t, 1000.0, paidAmount(t, db, client.ID))

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.Equal(t, 200.0, paidAmount(t, db, client.ID))

	t.Run("deleting twice reports not found", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, first.ID), service.ErrNotFound)
	})
}
