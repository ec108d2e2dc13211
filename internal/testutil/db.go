// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Client{},
		&domain.Lead{},
		&domain.Project{},
		&domain.Task{},
		&domain.TaskChecklist{},
		&domain.Interaction{},
		&domain.Transaction{},
		&domain.Document{},
		&domain.KPITarget{},
	)
	require.NoError(t, err)

	return db
}

// CreateTestUser inserts a user with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, email string, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestClient inserts a client, optionally assigned to users
func CreateTestClient(t *testing.T, db *gorm.DB, name string, assignees ...domain.User) *domain.Client {
	t.Helper()
	client := &domain.Client{
		Name:       name,
		Services:   domain.ServiceConsulting,
		AssignedTo: assignees,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CreateTestProject inserts a project for a client
func CreateTestProject(t *testing.T, db *gorm.DB, client *domain.Client, name string) *domain.Project {
	t.Helper()
	project := &domain.Project{
		ClientID: client.ID,
		Name:     name,
		Status:   domain.ProjectStatusInProgress,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateTestTask inserts a task on a project with the given status
func CreateTestTask(t *testing.T, db *gorm.DB, project *domain.Project, name string, status domain.TaskStatus) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ProjectID:   project.ID,
		Name:        name,
		Status:      status,
		Priority:    domain.TaskPriorityMedium,
		IsCompleted: status == domain.TaskStatusDone,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}
