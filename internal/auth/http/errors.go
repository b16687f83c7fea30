package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/memoauth/internal/auth/service"
	"github.com/aussiebroadwan/memoauth/pkg/httpx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

var errInvalidBody = errors.New("invalid request body")

// writeServiceError maps a service error onto the response. All
// authentication failures share one body so callers cannot tell an unknown
// email from a wrong password or a replayed token from an expired one. The
// cause is only logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case service.IsAuthFailure(err):
		log.Info("authentication failed", "path", r.URL.Path, "reason", err.Error())
		httpx.WriteUnauthorized(w)
	case errors.Is(err, httpx.ErrInsufficientPermissions):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeInsufficientPermissions, "Insufficient permissions")
	case errors.Is(err, errInvalidBody):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "email and password are required")
	default:
		log.Error("request failed", "path", r.URL.Path, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Internal server error")
	}
}
