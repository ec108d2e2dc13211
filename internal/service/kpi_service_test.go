package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/service"
	"github.com/techvilo/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestPct(t *testing.T) {
	cases := []struct {
		name   string
		actual float64
		target float64
		want   int
	}{
		{"zero actual zero target", 0, 0, 0},
		{"positive actual zero target", 5, 0, 100},
		{"half way", 50, 100, 50},
		{"over target caps at one hundred", 150, 100, 100},
		{"exact", 100, 100, 100},
		{"floors fractional", 1, 3, 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.Pct(tc.actual, tc.target))
		})
	}
}

func TestMonthWindow(t *testing.T) {
	from, to := service.MonthWindow(testDate(2025, 2, 14))

	assert.Equal(t, testDate(2025, 2, 1), from)
	assert.Equal(t, testDate(2025, 3, 1), to)

	// Half-open: the last instant of January and the first of March are out
	jan31 := testDate(2025, 1, 31).Add(23 * time.Hour)
	assert.True(t, jan31.Before(from))
	mar1 := testDate(2025, 3, 1)
	assert.False(t, mar1.Before(to))

	t.Run("december rolls into january", func(t *testing.T) {
		from, to := service.MonthWindow(testDate(2024, 12, 25))
		assert.Equal(t, testDate(2024, 12, 1), from)
		assert.Equal(t, testDate(2025, 1, 1), to)
	})
}

func newKPIService(db *gorm.DB) *service.KPIService {
	return service.NewKPIService(
		repository.NewKPITargetRepository(db),
		repository.NewUserRepository(db),
		zap.NewNop(),
		db,
	)
}

func TestKPIActuals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newKPIService(db)
	ctx := context.Background()

	staff := testutil.CreateTestUser(t, db, "agent@techvilo.com", domain.RoleAgent)
	other := testutil.CreateTestUser(t, db, "other@techvilo.com", domain.RoleAgent)
	month := testDate(2025, 2, 1)

	// Converted lead inside the window
	conv := testDate(2025, 2, 10)
	require.NoError(t, db.Create(&domain.Lead{
		Source:       "referral",
		Status:       domain.LeadStatusConverted,
		AssignedToID: &staff.ID,
		ConvertedAt:  &conv,
	}).Error)
	// Converted outside the window
	outside := testDate(2025, 3, 1)
	require.NoError(t, db.Create(&domain.Lead{
		Source:       "web",
		Status:       domain.LeadStatusConverted,
		AssignedToID: &staff.ID,
		ConvertedAt:  &outside,
	}).Error)
	// Someone else's conversion
	require.NoError(t, db.Create(&domain.Lead{
		Source:       "web",
		Status:       domain.LeadStatusConverted,
		AssignedToID: &other.ID,
		ConvertedAt:  &conv,
	}).Error)

	// Completed task due inside the window
	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Website")
	due := testDate(2025, 2, 20)
	require.NoError(t, db.Create(&domain.Task{
		ProjectID:    project.ID,
		Name:         "done in feb",
		AssignedToID: &staff.ID,
		Status:       domain.TaskStatusDone,
		Priority:     domain.TaskPriorityMedium,
		IsCompleted:  true,
		DueDate:      &due,
	}).Error)
	// Incomplete task does not count
	require.NoError(t, db.Create(&domain.Task{
		ProjectID:    project.ID,
		Name:         "open",
		AssignedToID: &staff.ID,
		Status:       domain.TaskStatusTodo,
		Priority:     domain.TaskPriorityMedium,
		DueDate:      &due,
	}).Error)

	// Interactions are anchored on created_at, which sqlite fills with now;
	// create one and query the current month for it below.
	require.NoError(t, db.Create(&domain.Interaction{
		ClientID:        &client.ID,
		CreatedByID:     &staff.ID,
		InteractionType: domain.InteractionCall,
		Notes:           "call",
	}).Error)

	// Revenue inside and outside the window
	require.NoError(t, db.Create(&domain.Transaction{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          2500,
		Date:            testDate(2025, 2, 5),
		CreatedByID:     &staff.ID,
	}).Error)
	require.NoError(t, db.Create(&domain.Transaction{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionIncome,
		Amount:          9000,
		Date:            testDate(2025, 1, 31),
		CreatedByID:     &staff.ID,
	}).Error)
	require.NoError(t, db.Create(&domain.Transaction{
		ClientID:        &client.ID,
		TransactionType: domain.TransactionExpense,
		Amount:          400,
		Date:            testDate(2025, 2, 6),
		CreatedByID:     &staff.ID,
	}).Error)

	actuals, err := svc.Actuals(ctx, staff.ID, month)
	require.NoError(t, err)

	assert.Equal(t, 1, actuals.Leads)
	assert.Equal(t, 1, actuals.Tasks)
	assert.Equal(t, 2500.0, actuals.Revenue)

	nowActuals, err := svc.Actuals(ctx, staff.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, nowActuals.Interactions)
}

func TestKPITargetLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newKPIService(db)
	ctx := context.Background()

	manager := testutil.CreateTestUser(t, db, "manager@techvilo.com", domain.RoleManager)
	staff := testutil.CreateTestUser(t, db, "agent@techvilo.com", domain.RoleAgent)

	req := &domain.CreateKPITargetRequest{
		StaffID:     staff.ID,
		Month:       "2025-02",
		TargetLeads: 10,
	}
	target, err := svc.CreateTarget(ctx, req, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, testDate(2025, 2, 1), target.Month.UTC())

	t.Run("duplicate month is rejected", func(t *testing.T) {
		_, err := svc.CreateTarget(ctx, req, manager.ID)
		assert.ErrorIs(t, err, service.ErrTargetExists)
	})

	t.Run("bad month format is rejected", func(t *testing.T) {
		bad := &domain.CreateKPITargetRequest{StaffID: staff.ID, Month: "February 2025"}
		_, err := svc.CreateTarget(ctx, bad, manager.ID)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("update changes targets", func(t *testing.T) {
		leads := 20
		got, err := svc.UpdateTarget(ctx, target.ID, &domain.UpdateKPITargetRequest{TargetLeads: &leads})
		require.NoError(t, err)
		assert.Equal(t, 20, got.TargetLeads)
	})

	t.Run("scorecard uses targets and caps", func(t *testing.T) {
		card, err := svc.Scorecard(ctx, staff.ID, testDate(2025, 2, 14))
		require.NoError(t, err)
		assert.Equal(t, "2025-02", card.Month)
		assert.Len(t, card.Metrics, 4)
	})

	t.Run("delete removes the target", func(t *testing.T) {
		require.NoError(t, svc.DeleteTarget(ctx, target.ID))
		err := svc.DeleteTarget(ctx, target.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
