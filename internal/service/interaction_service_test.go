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

func newInteractionService(db *gorm.DB) *service.InteractionService {
	return service.NewInteractionService(
		repository.NewInteractionRepository(db),
		repository.NewClientRepository(db),
		repository.NewLeadRepository(db),
		zap.NewNop(),
	)
}

func TestInteractionCreateLinkage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInteractionService(db)
	ctx := managerCtx(t, db)

	client := testutil.CreateTestClient(t, db, "Acme")
	lead := &domain.Lead{Name: "Prospect", Source: "webform", Status: domain.LeadStatusWarm}
	require.NoError(t, db.Create(lead).Error)

	t.Run("client interaction", func(t *testing.T) {
		dto, err := svc.Create(ctx, &domain.CreateInteractionRequest{
			ClientID: &client.ID,
			Notes:    "kickoff call",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.InteractionNote, dto.InteractionType)
	})

	t.Run("lead interaction", func(t *testing.T) {
		dto, err := svc.Create(ctx, &domain.CreateInteractionRequest{
			LeadID:          &lead.ID,
			InteractionType: domain.InteractionCall,
			Notes:           "qualification call",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.InteractionCall, dto.InteractionType)
	})

	t.Run("neither link", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateInteractionRequest{Notes: "orphan"})
		assert.ErrorIs(t, err, service.ErrMissingLinkage)
	})

	t.Run("both links", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateInteractionRequest{
			ClientID: &client.ID,
			LeadID:   &lead.ID,
			Notes:    "ambiguous",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown client", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Create(ctx, &domain.CreateInteractionRequest{
			ClientID: &missing,
			Notes:    "ghost",
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
