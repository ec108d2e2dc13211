package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/service"
	"github.com/techvilo/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newUserService(db *gorm.DB) (*service.UserService, *auth.TokenIssuer) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	svc := service.NewUserService(repository.NewUserRepository(db), issuer, zap.NewNop())
	return svc, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, issuer := newUserService(db)
	ctx := context.Background()

	dto, err := svc.Register(ctx, "new@techvilo.com", "s3cret-pass", "New Person", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, dto.Role)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "new@techvilo.com", "other-pass", "Someone Else", domain.RoleManager)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("login issues a usable token", func(t *testing.T) {
		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "new@techvilo.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, dto.ID, resp.User.ID)

		userCtx, err := issuer.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, dto.ID, userCtx.UserID)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "new@techvilo.com", Password: "wrong"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "nobody@techvilo.com", Password: "whatever"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("inactive account rejected", func(t *testing.T) {
		err := db.Model(&domain.User{}).Where("email = ?", "new@techvilo.com").
			Update("is_active", false).Error
		require.NoError(t, err)

		_, err = svc.Login(ctx, &domain.LoginRequest{Email: "new@techvilo.com", Password: "s3cret-pass"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}
