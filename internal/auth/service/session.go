package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/metrics"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/cryptox"
	"github.com/aussiebroadwan/memoauth/pkg/idx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

// Authenticator turns an email and password into an identity.
type Authenticator interface {
	Verify(ctx context.Context, email, password string) (jwtx.Identity, error)
}

// SessionService issues, rotates and revokes token pairs.
type SessionService struct {
	Store       store.Store
	Credentials Authenticator
	Signer      jwtx.Signer
	RefreshTTL  time.Duration

	// Timeout bounds each storage operation. Zero means no bound.
	Timeout time.Duration
	Metrics *metrics.Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login verifies the credentials and issues a fresh pair. Existing sessions
// of the account are left alone.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	id, err := s.Credentials.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.Metrics.Login(metrics.OutcomeInvalid)
		} else {
			s.Metrics.Login(metrics.OutcomeError)
		}
		return nil, err
	}

	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	pair, err := s.issue(sctx, s.Store, id)
	if err != nil {
		s.Metrics.Login(metrics.OutcomeError)
		return nil, err
	}

	s.Metrics.Login(metrics.OutcomeSuccess)
	l.Info("login succeeded", slog.String("user_id", id.Subject))
	return pair, nil
}

// Refresh consumes rawRefresh and issues a new pair for id. The record is
// deleted with a row-count check, so of several concurrent calls with the
// same token exactly one succeeds and the rest get ErrTokenNotRecognised.
// An expired record is removed and ErrTokenExpired returned.
func (s *SessionService) Refresh(ctx context.Context, id jwtx.Identity, rawRefresh string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	hash := cryptox.FingerprintToken(rawRefresh)
	now := s.now()

	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		result  *domain.TokenPair
		expired bool
	)
	err := s.Store.WithTx(sctx, func(tx store.Tx) error {
		rec, err := tx.RefreshTokens().GetRefreshTokenByOwnerAndHash(sctx, id.Subject, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenNotRecognised
			}
			return err
		}

		if err := tx.RefreshTokens().DeleteRefreshToken(sctx, rec.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenNotRecognised
			}
			return err
		}

		// Commit the removal of an expired record before failing.
		if rec.Expired(now) {
			expired = true
			return nil
		}

		pair, err := s.issue(sctx, tx, id)
		if err != nil {
			return err
		}
		result = pair
		return nil
	})

	switch {
	case errors.Is(err, ErrTokenNotRecognised):
		s.Metrics.Refresh(metrics.OutcomeNotRecognised)
		l.Warn("refresh token not recognised", slog.String("user_id", id.Subject))
		return nil, err
	case err != nil:
		s.Metrics.Refresh(metrics.OutcomeError)
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	case expired:
		s.Metrics.Refresh(metrics.OutcomeExpired)
		l.Info("refresh token expired", slog.String("user_id", id.Subject))
		return nil, ErrTokenExpired
	}

	s.Metrics.Refresh(metrics.OutcomeSuccess)
	l.Debug("refresh token rotated", slog.String("user_id", id.Subject))
	return result, nil
}

// Logout revokes the one session rawRefresh belongs to. It is idempotent.
func (s *SessionService) Logout(ctx context.Context, userID, rawRefresh string) error {
	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	n, err := s.Store.RefreshTokens().DeleteUserRefreshToken(sctx, userID, cryptox.FingerprintToken(rawRefresh))
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.Metrics.Logout(false, n)
	slogx.FromContext(ctx).Info("logout", slog.String("user_id", userID), slog.Int64("revoked", n))
	return nil
}

// LogoutAll revokes every session of userID and returns how many went.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	n, err := s.Store.RefreshTokens().DeleteAllUserRefreshTokens(sctx, userID)
	if err != nil {
		return 0, fmt.Errorf("logout all: %w", err)
	}

	s.Metrics.Logout(true, n)
	slogx.FromContext(ctx).Info("all sessions revoked", slog.String("user_id", userID), slog.Int64("revoked", n))
	return n, nil
}

// Sessions lists the unexpired sessions of userID, newest first.
func (s *SessionService) Sessions(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	return s.Store.RefreshTokens().ListUserRefreshTokens(sctx, userID)
}

// issue mints a pair for id and persists the refresh record through st,
// which may be a transaction.
func (s *SessionService) issue(ctx context.Context, st store.Store, id jwtx.Identity) (*domain.TokenPair, error) {
	access, err := s.Signer.SignAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Signer.SignRefresh(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    id.Subject,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
