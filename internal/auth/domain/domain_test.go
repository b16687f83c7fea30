package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEmail(t *testing.T) {
	require.Equal(t, "a@b.com", domain.NormaliseEmail("  A@B.Com "))
	require.Equal(t, "", domain.NormaliseEmail("   "))
}

func TestAccountIdentity(t *testing.T) {
	a := domain.Account{ID: "01J", Email: "a@b.com", Role: jwtx.RoleAdmin}
	require.Equal(t, jwtx.Identity{Subject: "01J", Email: "a@b.com", Role: jwtx.RoleAdmin}, a.Identity())
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Now()
	rt := domain.RefreshToken{ExpiresAt: now}

	require.False(t, rt.Expired(now))
	require.False(t, rt.Expired(now.Add(-time.Second)))
	require.True(t, rt.Expired(now.Add(time.Millisecond)))
}
