package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/memoauth/pkg/cryptox"
	"github.com/aussiebroadwan/memoauth/pkg/idx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAccount(t *testing.T, s store.Store) domain.Account {
	t.Helper()
	a := domain.Account{
		ID:           idx.New().String(),
		Email:        gofakeit.Email(),
		PasswordHash: "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		Role:         jwtx.RoleUser,
	}
	require.NoError(t, s.Accounts().CreateAccount(context.Background(), a))
	return a
}

func seedToken(t *testing.T, s store.Store, userID string, expiresAt time.Time) (domain.RefreshToken, string) {
	t.Helper()
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: expiresAt,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(context.Background(), rt))
	return rt, raw
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	a := domain.Account{
		ID:           idx.New().String(),
		Email:        "  Alice@Example.COM ",
		PasswordHash: "hash",
		Role:         jwtx.RoleAdmin,
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	got, err := s.Accounts().GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, jwtx.RoleAdmin, got.Role)
	require.False(t, got.CreatedAt.IsZero())

	byID, err := s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, got, byID)

	dup := a
	dup.ID = idx.New().String()
	dup.Email = "ALICE@example.com"
	require.ErrorIs(t, s.Accounts().CreateAccount(ctx, dup), store.ErrAlreadyExists)

	_, err = s.Accounts().GetAccountByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	empty, err = s.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestRefreshTokens_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := seedAccount(t, s)
	b := seedAccount(t, s)

	rt, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))

	got, err := s.RefreshTokens().GetRefreshTokenByOwnerAndHash(ctx, a.ID, rt.TokenHash)
	require.NoError(t, err)
	require.Equal(t, rt.ID, got.ID)
	require.WithinDuration(t, rt.ExpiresAt, got.ExpiresAt, time.Millisecond)

	// Owner is part of the lookup.
	_, err = s.RefreshTokens().GetRefreshTokenByOwnerAndHash(ctx, b.ID, rt.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID))
	require.ErrorIs(t, s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID), store.ErrNotFound)

	_, err = s.RefreshTokens().GetRefreshTokenByOwnerAndHash(ctx, a.ID, rt.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_OwnerScopedDeletes(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := seedAccount(t, s)
	b := seedAccount(t, s)

	first, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))
	second, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))
	other, _ := seedToken(t, s, b.ID, time.Now().Add(time.Hour))

	// Wrong owner deletes nothing.
	n, err := s.RefreshTokens().DeleteUserRefreshToken(ctx, b.ID, first.TokenHash)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.RefreshTokens().DeleteUserRefreshToken(ctx, a.ID, first.TokenHash)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	list, err := s.RefreshTokens().ListUserRefreshTokens(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, second.ID, list[0].ID)

	n, err = s.RefreshTokens().DeleteAllUserRefreshTokens(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.RefreshTokens().GetRefreshTokenByOwnerAndHash(ctx, b.ID, other.TokenHash)
	require.NoError(t, err)
}

func TestRefreshTokens_Expiry(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := seedAccount(t, s)

	live, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))
	seedToken(t, s, a.ID, time.Now().Add(-time.Minute))
	seedToken(t, s, a.ID, time.Now().Add(-time.Hour))

	list, err := s.RefreshTokens().ListUserRefreshTokens(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, live.ID, list[0].ID)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestRefreshTokens_DuplicateHash(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := seedAccount(t, s)

	rt, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))
	rt.ID = idx.New().String()
	require.ErrorIs(t, s.RefreshTokens().CreateRefreshToken(ctx, rt), store.ErrAlreadyExists)
}

func TestRefreshTokens_ForeignKeyEnforced(t *testing.T) {
	// Foreign keys are enforced: a record for an unknown owner is refused.
	ctx := context.Background()
	s := newStore(t)

	err := s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    "missing",
		TokenHash: "h",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.Error(t, err)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := seedAccount(t, s)
	rt, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.RefreshTokens().DeleteRefreshToken(ctx, rt.ID))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.RefreshTokens().GetRefreshTokenByOwnerAndHash(ctx, a.ID, rt.TokenHash)
		require.NoError(t, err)
	})

	t.Run("nested tx refused", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})

	t.Run("commit", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.RefreshTokens().DeleteRefreshToken(ctx, rt.ID)
		})
		require.NoError(t, err)

		_, err = s.RefreshTokens().GetRefreshTokenByOwnerAndHash(ctx, a.ID, rt.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	a := seedAccount(t, s)
	rt, _ := seedToken(t, s, a.ID, time.Now().Add(time.Hour))

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}
