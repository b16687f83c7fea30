package httpx

import (
	"context"

	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeyClaims   ctxKey = "claims"
	ctxKeyRawToken ctxKey = "raw_token"
)

// ClaimsFromContext returns the claims attached by Authenticate.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}

// RawTokenFromContext returns the bearer token exactly as presented. Only
// guards that expose it (the refresh guard) put it there.
func RawTokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(ctxKeyRawToken).(string)
	return t, ok && t != ""
}

// WithClaims attaches claims to ctx. Exported for handler tests.
func WithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// WithRawToken attaches the presented token to ctx. Exported for handler tests.
func WithRawToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, ctxKeyRawToken, raw)
}
