package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/notify"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/service"
	"github.com/techvilo/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newLeadService(db *gorm.DB) *service.LeadService {
	return service.NewLeadService(
		repository.NewLeadRepository(db),
		repository.NewUserRepository(db),
		notify.NopNotifier{},
		zap.NewNop(),
		db,
	)
}

func managerCtx(t *testing.T, db *gorm.DB) context.Context {
	t.Helper()
	manager := testutil.CreateTestUser(t, db, "mgr@techvilo.com", domain.RoleManager)
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: manager.ID,
		Email:  manager.Email,
		Role:   manager.Role,
	})
}

func TestLeadConvert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLeadService(db)
	ctx := managerCtx(t, db)

	agent := testutil.CreateTestUser(t, db, "agent@techvilo.com", domain.RoleAgent)

	lead := &domain.Lead{
		Name:         "Acme Contact",
		CompanyName:  "Acme GmbH",
		Source:       "trade fair",
		Status:       domain.LeadStatusHot,
		AssignedToID: &agent.ID,
	}
	require.NoError(t, db.Create(lead).Error)

	require.NoError(t, db.Create(&domain.Interaction{
		LeadID: &lead.ID, InteractionType: domain.InteractionNote, Notes: "first call",
	}).Error)
	require.NoError(t, db.Create(&domain.Interaction{
		LeadID: &lead.ID, InteractionType: domain.InteractionEmail, Notes: "sent quote",
	}).Error)
	require.NoError(t, db.Create(&domain.Document{
		LeadID: &lead.ID, Title: "quote.pdf", StoragePath: "qu/quote.pdf",
	}).Error)

	client, err := svc.Convert(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Contact", client.Name)
	assert.Equal(t, "Acme GmbH", client.CompanyName)
	assert.Equal(t, domain.ServiceConsulting, client.Services)
	require.Len(t, client.AssignedTo, 1)
	assert.Equal(t, agent.ID, client.AssignedTo[0].ID)

	// Lead is frozen as CONVERTED with a timestamp
	var frozen domain.Lead
	require.NoError(t, db.First(&frozen, "id = ?", lead.ID).Error)
	assert.Equal(t, domain.LeadStatusConverted, frozen.Status)
	require.NotNil(t, frozen.ConvertedAt)

	// History moved to the client and lost the lead link
	var interactions []domain.Interaction
	require.NoError(t, db.Find(&interactions, "client_id = ?", client.ID).Error)
	assert.Len(t, interactions, 2)
	for _, in := range interactions {
		assert.Nil(t, in.LeadID)
	}

	var doc domain.Document
	require.NoError(t, db.First(&doc, "client_id = ?", client.ID).Error)
	assert.Nil(t, doc.LeadID)
	assert.Equal(t, "quote.pdf", doc.Title)

	t.Run("second conversion is rejected", func(t *testing.T) {
		_, err := svc.Convert(ctx, lead.ID)
		assert.ErrorIs(t, err, service.ErrLeadAlreadyConverted)
	})

	t.Run("converted lead cannot be edited", func(t *testing.T) {
		name := "renamed"
		_, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Name: &name})
		assert.ErrorIs(t, err, service.ErrLeadAlreadyConverted)
	})
}

func TestLeadConvertNameFallbacks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLeadService(db)
	ctx := managerCtx(t, db)

	lead := &domain.Lead{Source: "cold call", Status: domain.LeadStatusCold}
	require.NoError(t, db.Create(lead).Error)

	client, err := svc.Convert(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "cold call", client.Name)
	assert.Equal(t, "cold call", client.CompanyName)
	assert.Empty(t, client.AssignedTo)
}

func TestLeadConvertHonorsScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLeadService(db)

	owner := testutil.CreateTestUser(t, db, "owner@techvilo.com", domain.RoleAgent)
	other := testutil.CreateTestUser(t, db, "other@techvilo.com", domain.RoleAgent)

	lead := &domain.Lead{Source: "web", Status: domain.LeadStatusHot, AssignedToID: &owner.ID}
	require.NoError(t, db.Create(lead).Error)

	agentCtx := func(u *domain.User) context.Context {
		return auth.WithUserContext(context.Background(), &auth.UserContext{
			UserID: u.ID,
			Email:  u.Email,
			Role:   u.Role,
		})
	}

	t.Run("unassigned agent cannot convert", func(t *testing.T) {
		_, err := svc.Convert(agentCtx(other), lead.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		var unchanged domain.Lead
		require.NoError(t, db.First(&unchanged, "id = ?", lead.ID).Error)
		assert.Equal(t, domain.LeadStatusHot, unchanged.Status)
		assert.Nil(t, unchanged.ConvertedAt)
	})

	t.Run("assigned agent converts their own lead", func(t *testing.T) {
		client, err := svc.Convert(agentCtx(owner), lead.ID)
		require.NoError(t, err)
		require.Len(t, client.AssignedTo, 1)
		assert.Equal(t, owner.ID, client.AssignedTo[0].ID)
	})
}

func TestLeadConvertUnknownLead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLeadService(db)
	ctx := managerCtx(t, db)

	missing := testutil.CreateTestUser(t, db, "x@techvilo.com", domain.RoleAgent).ID
	require.NoError(t, db.Delete(&domain.User{}, "id = ?", missing).Error)

	_, err := svc.Convert(ctx, missing)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestLeadUpdateRejectsConvertedStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLeadService(db)
	ctx := managerCtx(t, db)

	lead := &domain.Lead{Source: "web", Status: domain.LeadStatusWarm}
	require.NoError(t, db.Create(lead).Error)

	status := domain.LeadStatusConverted
	_, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &status})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	hot := domain.LeadStatusHot
	dto, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &hot})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusHot, dto.Status)
}

func TestLeadDueFollowUps(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLeadService(db)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	tomorrow := today.AddDate(0, 0, 1)

	due := &domain.Lead{Source: "due", Status: domain.LeadStatusWarm, NextFollowUp: &today}
	later := &domain.Lead{Source: "later", Status: domain.LeadStatusWarm, NextFollowUp: &tomorrow}
	converted := &domain.Lead{Source: "done", Status: domain.LeadStatusConverted, NextFollowUp: &today}
	require.NoError(t, db.Create(due).Error)
	require.NoError(t, db.Create(later).Error)
	require.NoError(t, db.Create(converted).Error)

	leads, err := svc.DueFollowUps(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "due", leads[0].Source)
}
