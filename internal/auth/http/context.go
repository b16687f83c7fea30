package http

import (
	"net/http"

	"github.com/aussiebroadwan/memoauth/pkg/httpx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

// refreshCredentials returns what the refresh guard left in the context.
func refreshCredentials(r *http.Request) (jwtx.Claims, string, bool) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return jwtx.Claims{}, "", false
	}
	raw, ok := httpx.RawTokenFromContext(r.Context())
	if !ok || raw == "" {
		return jwtx.Claims{}, "", false
	}
	return claims, raw, true
}
