package mongodb_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/mongodb"
	"github.com/aussiebroadwan/memoauth/pkg/idx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

func setupMongo(t *testing.T) *mongodb.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForListeningPort("27017/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	s, err := mongodb.New(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "memoauth_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestMongoStore(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()

	empty, err := s.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	acc := domain.Account{
		ID:           idx.New().String(),
		Email:        gofakeit.Email(),
		PasswordHash: "hash",
		Role:         jwtx.RoleAdmin,
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, acc))

	dup := acc
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Accounts().CreateAccount(ctx, dup), store.ErrAlreadyExists)

	got, err := s.Accounts().GetAccountByEmail(ctx, acc.Email)
	require.NoError(t, err)
	require.Equal(t, jwtx.RoleAdmin, got.Role)

	_, err = s.Accounts().GetAccountByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    acc.ID,
		TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	list, err := s.RefreshTokens().ListUserRefreshTokens(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)

	n, err := s.RefreshTokens().DeleteUserRefreshToken(ctx, acc.ID, "hash-1")
	require.NoError(t, err)
	require.Zero(t, n)
}
