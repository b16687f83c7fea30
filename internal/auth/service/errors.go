package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrTokenNotRecognised covers refresh tokens that were never issued,
	// were already rotated, or were revoked by logout.
	ErrTokenNotRecognised = errors.New("token_not_recognised")

	ErrTokenInvalid = jwtx.ErrInvalidToken
	ErrTokenExpired = jwtx.ErrExpired

	ErrInvalidAccount = errors.New("invalid_account")
)

// IsAuthFailure reports whether err is one of the errors a caller sees as a
// plain "unauthorized".
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenNotRecognised) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired)
}

// withTimeout bounds a storage call. A non-positive d only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
