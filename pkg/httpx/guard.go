package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

// ErrMissingBearer is an invalid-token failure for requests without a usable
// Authorization header.
var ErrMissingBearer = fmt.Errorf("%w: missing bearer token", jwtx.ErrInvalidToken)

// Guard authenticates a request and returns the caller's claims.
type Guard interface {
	Check(r *http.Request) (jwtx.Claims, error)
}

// RawTokenGuard is a Guard whose handlers also need the token verbatim.
type RawTokenGuard interface {
	Guard
	ExposesRawToken() bool
}

// BearerGuard verifies a bearer token of a single kind.
type BearerGuard struct {
	Verifier jwtx.Verifier
	Kind     jwtx.TokenKind
}

// NewAccessGuard gates ordinary authenticated endpoints.
func NewAccessGuard(v jwtx.Verifier) *BearerGuard {
	return &BearerGuard{Verifier: v, Kind: jwtx.KindAccess}
}

// NewRefreshGuard gates logout and refresh. It exposes the raw token so the
// session service can fingerprint it.
func NewRefreshGuard(v jwtx.Verifier) *BearerGuard {
	return &BearerGuard{Verifier: v, Kind: jwtx.KindRefresh}
}

func (g *BearerGuard) Check(r *http.Request) (jwtx.Claims, error) {
	raw, ok := BearerToken(r)
	if !ok {
		return jwtx.Claims{}, ErrMissingBearer
	}
	return g.Verifier.Verify(raw, g.Kind)
}

func (g *BearerGuard) ExposesRawToken() bool { return g.Kind == jwtx.KindRefresh }

// BearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate runs g and rejects the request with the generic unauthorized
// response on any failure. On success the claims, and for raw-token guards
// the token, are attached to the request context.
func Authenticate(g Guard) Middleware {
	exposeRaw := false
	if rg, ok := g.(RawTokenGuard); ok {
		exposeRaw = rg.ExposesRawToken()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, err := g.Check(r)
			if err != nil {
				slogx.FromContext(ctx).Info("authentication failed", "err", err)
				WriteUnauthorized(w)
				return
			}

			ctx = WithClaims(ctx, claims)
			if exposeRaw {
				raw, _ := BearerToken(r)
				ctx = WithRawToken(ctx, raw)
			}
			ctx = slogx.With(ctx, "user_id", claims.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
