package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/agency-ledger/api/middleware"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

type actor struct {
	ID   uuid.UUID
	Role enums.Role
}

func (a actor) isAdmin() bool {
	return a.Role == enums.RoleAdmin
}

func actorFromRequest(r *http.Request) (actor, error) {
	id, ok := middleware.RetailerIDFromContext(r.Context())
	if !ok {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor{ID: id, Role: middleware.RoleFromContext(r.Context())}, nil
}

// targetRetailer resolves whose balance a request acts on. Retailers act on
// themselves only; admins must name the retailer.
func targetRetailer(a actor, requested *uuid.UUID) (uuid.UUID, error) {
	if a.isAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer_id is required")
		}
		return *requested, nil
	}
	if requested != nil && *requested != uuid.Nil && *requested != a.ID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot act for another retailer")
	}
	return a.ID, nil
}
