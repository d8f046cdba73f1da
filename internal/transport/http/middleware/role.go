package middleware

import (
	"net/http"
)

// RequireRole returns middleware that allows access only to identities
// holding at least one of the provided roles (e.g. domain.RoleUser).
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
				return
			}
			for _, role := range allowedRoles {
				if id.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
		})
	}
}
