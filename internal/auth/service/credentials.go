package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/cryptox"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

// PasswordHasher is the part of cryptox.PasswordHasher the services use.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) error
}

var _ PasswordHasher = (*cryptox.PasswordHasher)(nil)

// CredentialVerifier checks an email and password against the account store.
// It never writes.
type CredentialVerifier struct {
	Store   store.Store
	Hasher  PasswordHasher
	Timeout time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// Verify returns the identity of the matching account. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials, and both pay for one
// hash comparison.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (jwtx.Identity, error) {
	l := slogx.FromContext(ctx)
	email = domain.NormaliseEmail(email)

	sctx, cancel := withTimeout(ctx, v.Timeout)
	defer cancel()

	acct, err := v.Store.Accounts().GetAccountByEmail(sctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = v.Hasher.Verify(password, v.dummy())
			l.Info("credential check failed", slog.String("reason", "unknown_email"))
			return jwtx.Identity{}, ErrInvalidCredentials
		}
		return jwtx.Identity{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := v.Hasher.Verify(password, acct.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("credential check failed",
				slog.String("reason", "password_mismatch"),
				slog.String("user_id", acct.ID),
			)
			return jwtx.Identity{}, ErrInvalidCredentials
		}
		return jwtx.Identity{}, fmt.Errorf("verify password for %s: %w", acct.ID, err)
	}

	return acct.Identity(), nil
}

func (v *CredentialVerifier) dummy() string {
	v.dummyOnce.Do(func() {
		// A failed hash leaves the dummy empty and Verify then returns
		// ErrUnsupportedHash immediately.
		v.dummyHash, _ = v.Hasher.Hash("memoauth-timing-equaliser")
	})
	return v.dummyHash
}
