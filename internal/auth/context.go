package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
)

// UserContext holds authenticated user information for the current request
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Role        domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// IsPrivileged reports whether the user sees all rows regardless of
// assignment. This is the single place the admin-or-manager rule lives;
// both the access scope and handler-level authorization consume it.
func (u *UserContext) IsPrivileged() bool {
	return u.Role == domain.RoleAdmin || u.Role == domain.RoleManager
}

// CanManageTargets reports whether the user may set KPI targets
func (u *UserContext) CanManageTargets() bool {
	return u.IsPrivileged()
}
