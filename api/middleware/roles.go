package middleware

import (
	"net/http"
	"slices"

	"github.com/apexev/apexev-backend/api/responses"
	"github.com/apexev/apexev-backend/pkg/enums"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
	"github.com/apexev/apexev-backend/pkg/logger"
)

// RequireAnyRole lets the request through only when the caller holds one of roles.
// It must run after Auth.
func RequireAnyRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal.Role == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !slices.Contains(roles, principal.Role) {
				err := pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s not permitted", principal.Role)
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
