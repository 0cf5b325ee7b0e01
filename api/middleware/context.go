package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

type contextKey string

const (
	ctxRetailerID contextKey = "retailer_id"
	ctxRole       contextKey = "actor_role"
)

// RetailerIDFromContext returns the authenticated account id.
func RetailerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxRetailerID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// WithIdentity injects the authenticated account and role into the context.
func WithIdentity(ctx context.Context, retailerID uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxRetailerID, retailerID)
	return context.WithValue(ctx, ctxRole, role)
}
