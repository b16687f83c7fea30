package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/idx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

type AccountService struct {
	Store   store.Store
	Hasher  PasswordHasher
	Timeout time.Duration
}

// CreateAccount hashes password and stores a new account. A taken email
// returns store.ErrAlreadyExists.
func (s *AccountService) CreateAccount(ctx context.Context, email, password string, role jwtx.Role) (domain.Account, error) {
	email = domain.NormaliseEmail(email)
	switch {
	case email == "":
		return domain.Account{}, fmt.Errorf("%w: email is required", ErrInvalidAccount)
	case password == "":
		return domain.Account{}, fmt.Errorf("%w: password is required", ErrInvalidAccount)
	case !role.Valid():
		return domain.Account{}, fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, role)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Store.Accounts().CreateAccount(sctx, acct); err != nil {
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("user_id", acct.ID),
		slog.String("role", string(role)),
	)
	return acct, nil
}

// EnsureBootstrapAdmin creates an ADMIN account when the account store is
// empty. It reports whether an account was created.
func (s *AccountService) EnsureBootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	l := slogx.FromContext(ctx)

	sctx, cancel := withTimeout(ctx, s.Timeout)
	empty, err := s.Store.Accounts().IsEmpty(sctx)
	cancel()
	if err != nil {
		return false, fmt.Errorf("check accounts: %w", err)
	}
	if !empty {
		l.Debug("accounts present, skipping bootstrap admin")
		return false, nil
	}

	if _, err := s.CreateAccount(ctx, email, password, jwtx.RoleAdmin); err != nil {
		// Another instance seeded first.
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}

	l.Info("bootstrap admin created", slog.String("email", domain.NormaliseEmail(email)))
	return true, nil
}
