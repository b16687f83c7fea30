package httpx

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

// ErrInsufficientPermissions means the caller is authenticated but lacks the
// role an operation needs.
var ErrInsufficientPermissions = errors.New("insufficient_permissions")

// RequireRole is the post-authentication role check.
func RequireRole(c jwtx.Claims, required jwtx.Role) error {
	if c.Role != required {
		return ErrInsufficientPermissions
	}
	return nil
}

// RequireRoleMiddleware applies RequireRole to the claims left by
// Authenticate. It must be chained after Authenticate.
func RequireRoleMiddleware(required jwtx.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteUnauthorized(w)
				return
			}

			if err := RequireRole(claims, required); err != nil {
				slogx.FromContext(r.Context()).Warn("role check failed",
					"have", claims.Role,
					"want", required,
				)
				WriteError(w, http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
