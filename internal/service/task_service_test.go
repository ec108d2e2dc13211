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

func newTaskService(db *gorm.DB) *service.TaskService {
	return service.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewProjectRepository(db),
		service.NewDerivedStateEngine(zap.NewNop()),
		zap.NewNop(),
		db,
	)
}

func projectProgress(t *testing.T, db *gorm.DB, projectID uuid.UUID) int {
	t.Helper()
	var project domain.Project
	require.NoError(t, db.First(&project, "id = ?", projectID).Error)
	return project.ProgressPercentage
}

func TestTaskLifecycleKeepsProgressConsistent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")

	first, err := svc.Create(ctx, &domain.CreateTaskRequest{
		ProjectID: project.ID,
		Name:      "wireframes",
		Status:    domain.TaskStatusDone,
	})
	require.NoError(t, err)
	assert.True(t, first.IsCompleted)
	assert.Equal(t, 100, projectProgress(t, db, project.ID))

	second, err := svc.Create(ctx, &domain.CreateTaskRequest{
		ProjectID: project.ID,
		Name:      "implementation",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, second.Status)
	assert.Equal(t, domain.TaskPriorityMedium, second.Priority)
	assert.Equal(t, 50, projectProgress(t, db, project.ID))

	// Finishing the second task via the status shortcut
	done, err := svc.SetStatus(ctx, second.ID, domain.TaskStatusDone)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, 100, projectProgress(t, db, project.ID))

	// Reopening drops progress again
	reopened, err := svc.SetStatus(ctx, first.ID, domain.TaskStatusInProgress)
	require.NoError(t, err)
	assert.False(t, reopened.IsCompleted)
	assert.Equal(t, 50, projectProgress(t, db, project.ID))

	// Removing the only unfinished task leaves one DONE task
	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.Equal(t, 100, projectProgress(t, db, project.ID))

	require.NoError(t, svc.Delete(ctx, second.ID))
	assert.Equal(t, 0, projectProgress(t, db, project.ID))
}

func TestTaskCreateRequiresVisibleProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	ctx := managerCtx(t, db)

	ghost := uuid.New()
	_, err := svc.Create(ctx, &domain.CreateTaskRequest{ProjectID: ghost, Name: "orphan"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Create(ctx, &domain.CreateTaskRequest{Name: "no project"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestTaskSetStatusRejectsUnknownStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")
	task := testutil.CreateTestTask(t, db, project, "work", domain.TaskStatusTodo)

	_, err := svc.SetStatus(ctx, task.ID, domain.TaskStatus("SHIPPED"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestTaskChecklist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")
	task := testutil.CreateTestTask(t, db, project, "work", domain.TaskStatusTodo)

	item, err := svc.AddChecklistItem(ctx, task.ID, &domain.CreateChecklistItemRequest{ItemName: "review copy"})
	require.NoError(t, err)
	assert.False(t, item.IsDone)

	require.NoError(t, svc.SetChecklistItemDone(ctx, item.ID, true))

	var stored domain.TaskChecklist
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.True(t, stored.IsDone)
	assert.Equal(t, task.ID, stored.TaskID)

	// Checklist items never move project progress
	assert.Equal(t, 0, projectProgress(t, db, project.ID))

	t.Run("unknown item reports not found", func(t *testing.T) {
		err := svc.SetChecklistItemDone(ctx, uuid.New(), true)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
