package jwt

import (
	"encoding/json"
	"net/http"

	"unipool/internal/domain/user"
)

// AuthMiddlewareFunc validates bearer tokens and injects claims into the
// request context. Rejections are JSON bodies matching the handlers'
// error shape.
func AuthMiddlewareFunc(mgr *Manager, allowedRoles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := FromAuthorization(r)
			if err != nil {
				authError(w, http.StatusUnauthorized, err)
				return
			}

			_, claims, err := mgr.ParseAndValidate(raw)
			if err != nil {
				authError(w, http.StatusUnauthorized, err)
				return
			}

			if err := RoleAllowed(claims, allowedRoles...); err != nil {
				authError(w, http.StatusForbidden, err)
				return
			}

			ctx := InjectClaims(r.Context(), claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireClaims extracts JWT claims from the request context.
func RequireClaims(r *http.Request) *Claims {
	c, _ := FromContext(r.Context())
	return c
}

func authError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
