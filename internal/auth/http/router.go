package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/metrics"
	"github.com/aussiebroadwan/memoauth/internal/auth/service"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/httpx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"

	_ "github.com/aussiebroadwan/memoauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	SessionService *service.SessionService
	Metrics        *metrics.Recorder

	// RateLimits defaults to httpx.DefaultRateLimitProfiles.
	RateLimits httpx.RateLimitProfiles
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimitProfiles(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			memoauth Authentication Service API
//	@version		0.1.0
//	@description	Email and password login issuing HS256 access and refresh tokens.
//	@description	Refresh tokens are single use and rotate on every refresh.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/memoauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access or refresh token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.SessionService}
	accessGuard := httpx.NewAccessGuard(r.verifier)
	refreshGuard := httpx.NewRefreshGuard(r.verifier)

	// POST /login - strict per address and email, moderate per address
	// across emails to slow credential stuffing
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.RateLimits.Moderate),
			httpx.RateLimitByIPAndJSONField(r.RateLimits.Strict, "email"),
		),
	)

	// POST /refresh - strict rate limit by user
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.Authenticate(refreshGuard),
			httpx.RateLimitByUser(r.RateLimits.Strict),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.Authenticate(refreshGuard),
			httpx.RateLimitByUser(r.RateLimits.Moderate),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(http.HandlerFunc(h.HandleLogoutAll),
			httpx.Authenticate(refreshGuard),
			httpx.RateLimitByUser(r.RateLimits.Moderate),
		),
	)

	// Read-only endpoints - lenient rate limit by user
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.Authenticate(accessGuard),
			httpx.RateLimitByUser(r.RateLimits.Lenient),
		),
	)
	r.Mux.Handle("GET /v1/auth/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleSessions),
			httpx.Authenticate(accessGuard),
			httpx.RateLimitByUser(r.RateLimits.Lenient),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Sessions: r.SessionService}

	r.Mux.Handle("DELETE /v1/admin/users/{id}/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleRevokeUserSessions),
			httpx.Authenticate(httpx.NewAccessGuard(r.verifier)),
			httpx.RequireRoleMiddleware(jwtx.RoleAdmin),
			httpx.RateLimitByUser(r.RateLimits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(r.RateLimits.Lenient),
		),
	)
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
