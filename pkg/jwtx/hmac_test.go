package jwtx_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret-that-is-at-least-32-bytes")
	refreshSecret = []byte("refresh-secret-that-is-at-least-32-bytes")
	alice         = jwtx.Identity{Subject: "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", Email: "a@b.com", Role: jwtx.RoleUser}
)

func newSigner(t *testing.T, mutate ...func(*jwtx.HMACOptions)) *jwtx.HMACSigner {
	t.Helper()
	opts := jwtx.HMACOptions{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "memoauth",
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := jwtx.NewHMACSigner(opts)
	require.NoError(t, err)
	return s
}

func TestNewHMACSignerRejectsWeakSecrets(t *testing.T) {
	_, err := jwtx.NewHMACSigner(jwtx.HMACOptions{
		AccessSecret:  []byte("short"),
		RefreshSecret: refreshSecret,
	})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewHMACSigner(jwtx.HMACOptions{
		AccessSecret:  accessSecret,
		RefreshSecret: []byte(strings.Repeat("x", 31)),
	})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewHMACSigner(jwtx.HMACOptions{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     -time.Second,
	})
	require.ErrorIs(t, err, jwtx.ErrInvalidTTL)
}

func TestRoundTrip(t *testing.T) {
	s := newSigner(t)

	for _, kind := range []jwtx.TokenKind{jwtx.KindAccess, jwtx.KindRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			var (
				token string
				err   error
			)
			if kind == jwtx.KindAccess {
				token, err = s.SignAccess(alice)
			} else {
				token, err = s.SignRefresh(alice)
			}
			require.NoError(t, err)

			claims, err := s.Verify(token, kind)
			require.NoError(t, err)
			require.Equal(t, alice, claims.Identity())
			require.Equal(t, kind, claims.Use)
			require.WithinDuration(t, time.Now().Add(s.TTL(kind)), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestTokensAreDistinctPerMint(t *testing.T) {
	s := newSigner(t)

	a, err := s.SignRefresh(alice)
	require.NoError(t, err)
	b, err := s.SignRefresh(alice)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestKindsAreNotInterchangeable(t *testing.T) {
	s := newSigner(t)

	access, err := s.SignAccess(alice)
	require.NoError(t, err)
	refresh, err := s.SignRefresh(alice)
	require.NoError(t, err)

	_, err = s.Verify(access, jwtx.KindRefresh)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)

	_, err = s.Verify(refresh, jwtx.KindAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestSameSecretStillSeparatesKinds(t *testing.T) {
	s := newSigner(t, func(o *jwtx.HMACOptions) { o.RefreshSecret = accessSecret })

	access, err := s.SignAccess(alice)
	require.NoError(t, err)

	_, err = s.Verify(access, jwtx.KindRefresh)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestZeroTTLIsExpiredNotInvalid(t *testing.T) {
	s := newSigner(t, func(o *jwtx.HMACOptions) {
		o.AccessTTL = 0
		o.RefreshTTL = 0
	})

	access, err := s.SignAccess(alice)
	require.NoError(t, err)
	_, err = s.Verify(access, jwtx.KindAccess)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.NotErrorIs(t, err, jwtx.ErrInvalidToken)

	refresh, err := s.SignRefresh(alice)
	require.NoError(t, err)
	_, err = s.Verify(refresh, jwtx.KindRefresh)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestExpiryAfterTTLElapses(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	s := newSigner(t, func(o *jwtx.HMACOptions) { o.Now = clock })

	token, err := s.SignAccess(alice)
	require.NoError(t, err)

	now = now.Add(14 * time.Minute)
	_, err = s.Verify(token, jwtx.KindAccess)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Verify(token, jwtx.KindAccess)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestLeewayToleratesSkew(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	s := newSigner(t, func(o *jwtx.HMACOptions) {
		o.Now = clock
		o.Leeway = 30 * time.Second
	})

	token, err := s.SignAccess(alice)
	require.NoError(t, err)

	now = now.Add(15*time.Minute + 10*time.Second)
	_, err = s.Verify(token, jwtx.KindAccess)
	require.NoError(t, err)
}

func TestExpiredWithBadSignatureIsInvalid(t *testing.T) {
	signer := newSigner(t, func(o *jwtx.HMACOptions) { o.AccessTTL = 0 })
	other := newSigner(t, func(o *jwtx.HMACOptions) {
		o.AccessSecret = []byte("a-completely-different-access-secret!!")
	})

	token, err := signer.SignAccess(alice)
	require.NoError(t, err)

	_, err = other.Verify(token, jwtx.KindAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	require.NotErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejects(t *testing.T) {
	s := newSigner(t)

	good, err := s.SignAccess(alice)
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone,
		jwtx.NewClaims(alice, jwtx.KindAccess, time.Minute, "memoauth", time.Now()),
	).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512,
		jwtx.NewClaims(alice, jwtx.KindAccess, time.Minute, "memoauth", time.Now()),
	).SignedString(accessSecret)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwtx.NewClaims(alice, jwtx.KindAccess, time.Minute, "someone-else", time.Now()),
	).SignedString(accessSecret)
	require.NoError(t, err)

	noExp := jwtx.NewClaims(alice, jwtx.KindAccess, time.Minute, "memoauth", time.Now())
	noExp.ExpiresAt = nil
	noExpToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString(accessSecret)
	require.NoError(t, err)

	noEmail := jwtx.NewClaims(alice, jwtx.KindAccess, time.Minute, "memoauth", time.Now())
	noEmail.Email = ""
	noEmailToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noEmail).SignedString(accessSecret)
	require.NoError(t, err)

	badRole := jwtx.NewClaims(alice, jwtx.KindAccess, time.Minute, "memoauth", time.Now())
	badRole.Role = "ROOT"
	badRoleToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, badRole).SignedString(accessSecret)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":            "",
		"garbage":          "not.a.jwt",
		"tampered payload": parts[0] + "." + parts[1] + "x." + parts[2],
		"tampered sig":     parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2])),
		"alg none":         noneToken,
		"other alg":        hs512,
		"wrong issuer":     wrongIssuer,
		"missing exp":      noExpToken,
		"missing email":    noEmailToken,
		"unknown role":     badRoleToken,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(token, jwtx.KindAccess)
			require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		})
	}
}

func TestSignRefusesIncompleteIdentity(t *testing.T) {
	s := newSigner(t)

	_, err := s.SignAccess(jwtx.Identity{Email: "a@b.com", Role: jwtx.RoleUser})
	require.Error(t, err)

	_, err = s.SignAccess(jwtx.Identity{Subject: "x", Role: "guest"})
	require.Error(t, err)

	_, err = s.SignAccess(jwtx.Identity{Subject: "x", Role: jwtx.RoleUser})
	require.Error(t, err)
}

func TestConcurrentSignVerify(t *testing.T) {
	s := newSigner(t)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := s.SignAccess(alice)
			if err == nil {
				_, err = s.Verify(token, jwtx.KindAccess)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
