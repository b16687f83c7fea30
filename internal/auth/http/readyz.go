package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/authsdk"
	"github.com/aussiebroadwan/memoauth/pkg/httpx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

const readyzPingTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Returns 200 when the refresh token store answers a ping, 503 otherwise
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	httpx.Envelope			"database unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzPingTimeout)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			slogx.FromContext(r.Context()).Warn("readiness check failed", "error", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, httpx.CodeServerError, "database unreachable")
			return
		}

		httpx.WriteData(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  &authsdk.HealthChecks{Database: "ok"},
		})
	}
}
