package middleware

import (
	"net/http"
	"slices"
)

// RequireRole admits tokens whose role claim is one of allowedRoles. It must run after Auth.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(allowedRoles, claims.Role) {
				writeJSONError(w, r, http.StatusForbidden, "role "+claims.Role+" may not use this endpoint")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
