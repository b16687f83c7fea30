package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Login exchanges an email and password for a token pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := decodeData(resp, &pair, http.StatusOK); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh consumes refreshToken and returns the next pair. The old refresh
// token is unusable afterwards.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/refresh", refreshToken, nil)
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := decodeData(resp, &pair, http.StatusOK); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout revokes the session refreshToken belongs to.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", refreshToken, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// LogoutAll revokes every session of the owner of refreshToken.
func (c *SDKClient) LogoutAll(ctx context.Context, refreshToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout-all", refreshToken, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Me returns the identity behind accessToken.
func (c *SDKClient) Me(ctx context.Context, accessToken string) (*MeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/me", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeData(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// Sessions lists the active sessions of the caller, newest first.
func (c *SDKClient) Sessions(ctx context.Context, accessToken string) ([]SessionInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/sessions", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var sessions []SessionInfo
	if err := decodeData(resp, &sessions, http.StatusOK); err != nil {
		return nil, err
	}
	return sessions, nil
}

// RevokeUserSessions removes every session of userID. The caller must be an
// ADMIN.
func (c *SDKClient) RevokeUserSessions(ctx context.Context, accessToken, userID string) (int64, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/admin/users/"+url.PathEscape(userID)+"/sessions", accessToken, nil)
	if err != nil {
		return 0, err
	}

	var out RevokeResponse
	if err := decodeData(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}
