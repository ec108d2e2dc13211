package repository

import (
	"context"

	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"gorm.io/gorm"
)

// ApplyScope applies row-level access scoping for the requesting user to a
// GORM query over the given entity kind. Privileged users (admin or manager)
// see every row. Other staff are restricted by the ownership chain rooted at
// client assignments. Entity kinds outside the scoped set are returned
// unchanged; that default-open policy is deliberate and callers must not
// assume scoping exists for kinds not listed here.
//
// The scope is re-evaluated on every call from the request's user context;
// it is never cached, since role membership can change between requests.
func ApplyScope(ctx context.Context, query *gorm.DB, kind domain.EntityKind) *gorm.DB {
	user, ok := auth.FromContext(ctx)
	if !ok {
		// No authenticated user: match nothing rather than leak rows.
		return query.Where("1 = 0")
	}
	if user.IsPrivileged() {
		return query
	}

	assigned := "SELECT client_id FROM client_assignments WHERE user_id = ?"

	switch kind {
	case domain.KindClient:
		return query.Where("clients.id IN ("+assigned+")", user.UserID)
	case domain.KindLead:
		return query.Where("leads.assigned_to_id = ?", user.UserID)
	case domain.KindProject:
		return query.Where("projects.client_id IN ("+assigned+")", user.UserID)
	case domain.KindTask:
		return query.Where("tasks.project_id IN (SELECT id FROM projects WHERE client_id IN ("+assigned+"))", user.UserID)
	case domain.KindTransaction:
		return query.Where(
			"transactions.client_id IN ("+assigned+") OR transactions.project_id IN (SELECT id FROM projects WHERE client_id IN ("+assigned+"))",
			user.UserID, user.UserID,
		)
	default:
		return query
	}
}
