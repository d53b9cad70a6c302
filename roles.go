package tokenauth

import (
	"fmt"
	"net/http"
)

// RequireRoles returns middleware that lets a request through only when the
// identity stored by RequireToken holds at least one of roles. With no
// roles it only requires an identity. It must be mounted behind
// RequireToken.
func (m *Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := GetIdentity(r.Context())
			if err != nil {
				m.errorHandler(w, r, ErrTokenMissing)
				return
			}

			if len(roles) > 0 && !identity.HasAnyRole(roles...) {
				if m.logger != nil {
					m.logger.Info("role check failed",
						"email", identity.Email,
						"required", roles,
						"path", r.URL.Path)
				}
				m.errorHandler(w, r, fmt.Errorf("%w: requires one of %v", ErrForbidden, roles))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
