package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/memoauth/internal/auth/service"
	"github.com/aussiebroadwan/memoauth/pkg/authsdk"
	"github.com/aussiebroadwan/memoauth/pkg/httpx"
)

const maxLoginBody = 16 << 10

type AuthHandler struct {
	Sessions *service.SessionService
}

// HandleLogin exchanges credentials for a token pair.
//
//	@Summary		Log in
//	@Description	Exchanges an email and password for an access and refresh token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenPair		"Token pair"
//	@Failure		400		{object}	httpx.Envelope			"Malformed body"
//	@Failure		401		{object}	httpx.Envelope			"Invalid credentials"
//	@Failure		429		{object}	httpx.Envelope			"Rate limited"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil ||
		req.Email == "" || req.Password == "" {
		writeServiceError(w, r, errInvalidBody)
		return
	}

	pair, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, authsdk.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleRefresh rotates the refresh token presented as the bearer.
//
//	@Summary		Rotate the refresh token
//	@Description	Consumes the refresh token in the Authorization header and returns a new pair. Each refresh token works once.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TokenPair	"Token pair"
//	@Failure		401	{object}	httpx.Envelope		"Invalid, expired or reused refresh token"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, raw, ok := refreshCredentials(r)
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	pair, err := h.Sessions.Refresh(r.Context(), claims.Identity(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, authsdk.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogout revokes the session of the presented refresh token.
//
//	@Summary		Log out
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Logged out"
//	@Failure		401	{object}	httpx.Envelope	"Invalid refresh token"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, raw, ok := refreshCredentials(r)
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	if err := h.Sessions.Logout(r.Context(), claims.Subject, raw); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll revokes every session of the refresh token's owner.
//
//	@Summary		Log out everywhere
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Logged out"
//	@Failure		401	{object}	httpx.Envelope	"Invalid refresh token"
//	@Router			/v1/auth/logout-all [post].
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	if _, err := h.Sessions.LogoutAll(r.Context(), claims.Subject); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the identity in the access token.
//
//	@Summary		Current identity
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse	"Identity"
//	@Failure		401	{object}	httpx.Envelope		"Invalid access token"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	httpx.WriteData(w, http.StatusOK, authsdk.MeResponse{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  string(claims.Role),
	})
}

// HandleSessions lists the caller's active sessions.
//
//	@Summary		Active sessions of the caller
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		authsdk.SessionInfo	"Sessions, newest first"
//	@Failure		401	{object}	httpx.Envelope		"Invalid access token"
//	@Router			/v1/auth/sessions [get].
func (h *AuthHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	records, err := h.Sessions.Sessions(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.SessionInfo, 0, len(records))
	for _, rec := range records {
		out = append(out, authsdk.SessionInfo{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
		})
	}
	httpx.WriteData(w, http.StatusOK, out)
}
