package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/testutil"
	"gorm.io/gorm"
)

func userCtx(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	})
}

// Fixture: two agents with separate clients, a manager, and a project/task
// chain under each client.
type scopeFixture struct {
	db       *gorm.DB
	manager  *domain.User
	agentA   *domain.User
	agentB   *domain.User
	clientA  *domain.Client
	clientB  *domain.Client
	projectA *domain.Project
	projectB *domain.Project
}

func setupScopeFixture(t *testing.T) *scopeFixture {
	db := testutil.SetupTestDB(t)
	f := &scopeFixture{db: db}

	f.manager = testutil.CreateTestUser(t, db, "manager@techvilo.com", domain.RoleManager)
	f.agentA = testutil.CreateTestUser(t, db, "a@techvilo.com", domain.RoleAgent)
	f.agentB = testutil.CreateTestUser(t, db, "b@techvilo.com", domain.RoleAgent)

	f.clientA = testutil.CreateTestClient(t, db, "ClientA", *f.agentA)
	f.clientB = testutil.CreateTestClient(t, db, "ClientB", *f.agentB)

	f.projectA = testutil.CreateTestProject(t, db, f.clientA, "ProjectA")
	f.projectB = testutil.CreateTestProject(t, db, f.clientB, "ProjectB")

	testutil.CreateTestTask(t, db, f.projectA, "TaskA", domain.TaskStatusTodo)
	testutil.CreateTestTask(t, db, f.projectB, "TaskB", domain.TaskStatusTodo)
	return f
}

func clientNames(clients []domain.Client) []string {
	names := make([]string, len(clients))
	for i, c := range clients {
		names[i] = c.Name
	}
	return names
}

func TestApplyScope_Clients(t *testing.T) {
	f := setupScopeFixture(t)
	repo := repository.NewClientRepository(f.db)

	t.Run("agent sees only assigned clients", func(t *testing.T) {
		clients, total, err := repo.List(userCtx(f.agentA), 1, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"ClientA"}, clientNames(clients))
	})

	t.Run("manager sees everything", func(t *testing.T) {
		_, total, err := repo.List(userCtx(f.manager), 1, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("no user context matches nothing", func(t *testing.T) {
		_, total, err := repo.List(context.Background(), 1, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestApplyScope_ProjectAndTaskChains(t *testing.T) {
	f := setupScopeFixture(t)
	projectRepo := repository.NewProjectRepository(f.db)
	taskRepo := repository.NewTaskRepository(f.db)

	t.Run("projects follow the client assignment", func(t *testing.T) {
		projects, err := projectRepo.ListScoped(userCtx(f.agentA))
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "ProjectA", projects[0].Name)
	})

	t.Run("tasks follow the project chain", func(t *testing.T) {
		tasks, err := taskRepo.ListScoped(userCtx(f.agentB))
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "TaskB", tasks[0].Name)
	})

	t.Run("manager sees all tasks", func(t *testing.T) {
		tasks, err := taskRepo.ListScoped(userCtx(f.manager))
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})
}

func TestApplyScope_Leads(t *testing.T) {
	f := setupScopeFixture(t)
	leadRepo := repository.NewLeadRepository(f.db)

	require.NoError(t, f.db.Create(&domain.Lead{Source: "web", Status: domain.LeadStatusCold, AssignedToID: &f.agentA.ID}).Error)
	require.NoError(t, f.db.Create(&domain.Lead{Source: "ref", Status: domain.LeadStatusHot, AssignedToID: &f.agentB.ID}).Error)
	require.NoError(t, f.db.Create(&domain.Lead{Source: "fair", Status: domain.LeadStatusCold}).Error)

	t.Run("agent sees only own leads", func(t *testing.T) {
		leads, total, err := leadRepo.List(userCtx(f.agentA), 1, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "web", leads[0].Source)
	})

	t.Run("manager sees unassigned leads too", func(t *testing.T) {
		_, total, err := leadRepo.List(userCtx(f.manager), 1, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}

func TestApplyScope_Transactions(t *testing.T) {
	f := setupScopeFixture(t)
	txRepo := repository.NewTransactionRepository(f.db)

	// Direct client income for A, project income for B
	require.NoError(t, f.db.Create(&domain.Transaction{
		ClientID:        &f.clientA.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          100,
		Date:            f.clientA.CreatedAt,
	}).Error)
	require.NoError(t, f.db.Create(&domain.Transaction{
		ProjectID:       &f.projectB.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          250,
		Date:            f.clientB.CreatedAt,
	}).Error)

	t.Run("agent sums only reachable transactions", func(t *testing.T) {
		sumA, err := txRepo.SumByType(userCtx(f.agentA), domain.TransactionIncome)
		require.NoError(t, err)
		assert.Equal(t, 100.0, sumA)

		sumB, err := txRepo.SumByType(userCtx(f.agentB), domain.TransactionIncome)
		require.NoError(t, err)
		assert.Equal(t, 250.0, sumB)
	})

	t.Run("manager sums everything", func(t *testing.T) {
		sum, err := txRepo.SumByType(userCtx(f.manager), domain.TransactionIncome)
		require.NoError(t, err)
		assert.Equal(t, 350.0, sum)
	})
}
