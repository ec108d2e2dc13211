package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"github.com/techvilo/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newEngine() *service.DerivedStateEngine {
	return service.NewDerivedStateEngine(zap.NewNop())
}

func reloadProject(t *testing.T, db *gorm.DB, id interface{}) *domain.Project {
	t.Helper()
	var project domain.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	return &project
}

func TestRecomputeProjectProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newEngine()
	ctx := context.Background()

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")

	t.Run("no tasks yields zero", func(t *testing.T) {
		require.NoError(t, engine.RecomputeProjectProgress(ctx, db, project.ID))
		assert.Equal(t, 0, reloadProject(t, db, project.ID).ProgressPercentage)
	})

	t.Run("partial completion floors the percentage", func(t *testing.T) {
		testutil.CreateTestTask(t, db, project, "a", domain.TaskStatusDone)
		testutil.CreateTestTask(t, db, project, "b", domain.TaskStatusDone)
		testutil.CreateTestTask(t, db, project, "c", domain.TaskStatusDone)
		testutil.CreateTestTask(t, db, project, "d", domain.TaskStatusTodo)

		require.NoError(t, engine.RecomputeProjectProgress(ctx, db, project.ID))
		assert.Equal(t, 75, reloadProject(t, db, project.ID).ProgressPercentage)
	})

	t.Run("all done yields one hundred", func(t *testing.T) {
		require.NoError(t, db.Model(&domain.Task{}).
			Where("project_id = ?", project.ID).
			Updates(map[string]any{"status": domain.TaskStatusDone, "is_completed": true}).Error)

		require.NoError(t, engine.RecomputeProjectProgress(ctx, db, project.ID))
		assert.Equal(t, 100, reloadProject(t, db, project.ID).ProgressPercentage)
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, engine.RecomputeProjectProgress(ctx, db, project.ID))
		require.NoError(t, engine.RecomputeProjectProgress(ctx, db, project.ID))
		assert.Equal(t, 100, reloadProject(t, db, project.ID).ProgressPercentage)
	})

	t.Run("missing project is a no-op", func(t *testing.T) {
		ghost := testutil.CreateTestProject(t, db, client, "ghost")
		require.NoError(t, db.Delete(&domain.Project{}, "id = ?", ghost.ID).Error)
		assert.NoError(t, engine.RecomputeProjectProgress(ctx, db, ghost.ID))
	})
}

func TestSyncTaskCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newEngine()
	ctx := context.Background()

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")

	t.Run("status DONE sets the flag", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, project, "a", domain.TaskStatusTodo)
		require.NoError(t, db.Model(task).UpdateColumn("status", domain.TaskStatusDone).Error)

		require.NoError(t, engine.SyncTaskCompletion(ctx, db, task.ID))

		var got domain.Task
		require.NoError(t, db.First(&got, "id = ?", task.ID).Error)
		assert.True(t, got.IsCompleted)
	})

	t.Run("leaving DONE clears the flag", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, project, "b", domain.TaskStatusDone)
		require.NoError(t, db.Model(task).UpdateColumn("status", domain.TaskStatusReview).Error)

		require.NoError(t, engine.SyncTaskCompletion(ctx, db, task.ID))

		var got domain.Task
		require.NoError(t, db.First(&got, "id = ?", task.ID).Error)
		assert.False(t, got.IsCompleted)
	})

	t.Run("missing task is a no-op", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, project, "c", domain.TaskStatusTodo)
		require.NoError(t, db.Delete(&domain.Task{}, "id = ?", task.ID).Error)
		assert.NoError(t, engine.SyncTaskCompletion(ctx, db, task.ID))
	})
}

func TestRecomputeClientPaidAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newEngine()
	ctx := context.Background()

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")

	addTxn := func(txnType domain.TransactionType, amount float64, clientLink, projectLink bool) {
		txn := &domain.Transaction{
			TransactionType: txnType,
			Amount:          amount,
			Date:            testDate(2025, 3, 10),
		}
		if clientLink {
			txn.ClientID = &client.ID
		}
		if projectLink {
			txn.ProjectID = &project.ID
		}
		require.NoError(t, db.Create(txn).Error)
	}

	reload := func() *domain.Client {
		var got domain.Client
		require.NoError(t, db.First(&got, "id = ?", client.ID).Error)
		return &got
	}

	t.Run("sums direct and project income", func(t *testing.T) {
		addTxn(domain.TransactionIncome, 1000, true, false)
		addTxn(domain.TransactionIncome, 500, false, true)

		require.NoError(t, engine.RecomputeClientPaidAmount(ctx, db, client.ID))
		assert.Equal(t, 1500.0, reload().PaidAmount)
	})

	t.Run("a row with both links counts once", func(t *testing.T) {
		addTxn(domain.TransactionIncome, 200, true, true)

		require.NoError(t, engine.RecomputeClientPaidAmount(ctx, db, client.ID))
		assert.Equal(t, 1700.0, reload().PaidAmount)
	})

	t.Run("expenses never count", func(t *testing.T) {
		addTxn(domain.TransactionExpense, 9999, true, false)
		addTxn(domain.TransactionExpense, 9999, false, true)

		require.NoError(t, engine.RecomputeClientPaidAmount(ctx, db, client.ID))
		assert.Equal(t, 1700.0, reload().PaidAmount)
	})

	t.Run("deleting income lowers the total", func(t *testing.T) {
		require.NoError(t, db.Where("amount = ?", 200.0).Delete(&domain.Transaction{}).Error)

		require.NoError(t, engine.RecomputeClientPaidAmount(ctx, db, client.ID))
		assert.Equal(t, 1500.0, reload().PaidAmount)
	})

	t.Run("missing client is a no-op", func(t *testing.T) {
		ghost := testutil.CreateTestClient(t, db, "ghost")
		require.NoError(t, db.Delete(&domain.Client{}, "id = ?", ghost.ID).Error)
		assert.NoError(t, engine.RecomputeClientPaidAmount(ctx, db, ghost.ID))
	})
}

func TestResolveAffectedClient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newEngine()
	ctx := context.Background()

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")

	t.Run("direct client link wins", func(t *testing.T) {
		txn := &domain.Transaction{ClientID: &client.ID, ProjectID: &project.ID}
		got, err := engine.ResolveAffectedClient(ctx, db, txn)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, client.ID, *got)
	})

	t.Run("project link resolves through the project", func(t *testing.T) {
		txn := &domain.Transaction{ProjectID: &project.ID}
		got, err := engine.ResolveAffectedClient(ctx, db, txn)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, client.ID, *got)
	})

	t.Run("no links resolves to nothing", func(t *testing.T) {
		got, err := engine.ResolveAffectedClient(ctx, db, &domain.Transaction{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("dangling project resolves to nothing", func(t *testing.T) {
		ghost := testutil.CreateTestProject(t, db, client, "ghost")
		require.NoError(t, db.Delete(&domain.Project{}, "id = ?", ghost.ID).Error)

		txn := &domain.Transaction{ProjectID: &ghost.ID}
		got, err := engine.ResolveAffectedClient(ctx, db, txn)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
