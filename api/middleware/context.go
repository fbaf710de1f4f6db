package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/apexev/apexev-backend/pkg/enums"
)

type principalKey struct{}

// Principal is the authenticated caller resolved from the access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
}

// WithPrincipal stores the caller on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by Auth.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserUUIDFromContext reports false when no caller is set or its id is nil.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.UserID, true
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}
