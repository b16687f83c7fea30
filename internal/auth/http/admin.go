package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/memoauth/internal/auth/service"
	"github.com/aussiebroadwan/memoauth/pkg/authsdk"
	"github.com/aussiebroadwan/memoauth/pkg/httpx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

type AdminHandler struct {
	Sessions *service.SessionService
}

// HandleRevokeUserSessions removes every session of a user.
//
//	@Summary		Revoke every session of a user
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"User ID"
//	@Success		200	{object}	authsdk.RevokeResponse	"Number of sessions revoked"
//	@Failure		401	{object}	httpx.Envelope			"Invalid access token"
//	@Failure		403	{object}	httpx.Envelope			"Caller is not an ADMIN"
//	@Router			/v1/admin/users/{id}/sessions [delete].
func (h *AdminHandler) HandleRevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("id"))
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "user id is required")
		return
	}

	n, err := h.Sessions.LogoutAll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("admin revoked user sessions", "target_user_id", userID, "revoked", n)
	httpx.WriteData(w, http.StatusOK, authsdk.RevokeResponse{Revoked: n})
}
