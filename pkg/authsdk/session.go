package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshBuffer is how long before expiry a Session refreshes early.
const refreshBuffer = 30 * time.Second

// ErrNoRefreshToken is returned when a Session has already logged out.
var ErrNoRefreshToken = errors.New("authsdk: session has no refresh token")

// Session holds a token pair and refreshes the access token as needed. It is
// safe for concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewSessionFromTokens wraps an existing pair. The access token expiry is
// read from its exp claim without verifying the signature; the server does
// that.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    tokenExpiry(accessToken),
	}
}

// tokenExpiry returns exp minus refreshBuffer, or the zero time when the
// token carries no readable exp so the next call refreshes.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Add(-refreshBuffer)
}

// getValidToken returns a valid access token, refreshing if it is about to
// expire.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// Refresh rotates the pair now regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = tokenExpiry(pair.AccessToken)
	return nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Me(ctx, token)
}

func (s *Session) Sessions(ctx context.Context) ([]SessionInfo, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Sessions(ctx, token)
}

func (s *Session) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return 0, err
	}
	return s.client.RevokeUserSessions(ctx, token, userID)
}

// Logout revokes this session and forgets its tokens.
func (s *Session) Logout(ctx context.Context) error {
	return s.end(ctx, s.client.Logout)
}

// LogoutAll revokes every session of the account and forgets this one's
// tokens.
func (s *Session) LogoutAll(ctx context.Context) error {
	return s.end(ctx, s.client.LogoutAll)
}

func (s *Session) end(ctx context.Context, call func(context.Context, string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}
	if err := call(ctx, s.refreshToken); err != nil {
		return err
	}
	s.accessToken, s.refreshToken, s.expiresAt = "", "", time.Time{}
	return nil
}
