package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/metrics"
	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/aussiebroadwan/grimoire/pkg/slogx"

	_ "github.com/aussiebroadwan/grimoire/api/grimoire" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	issuer       *service.Issuer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
	limits       httpx.RateLimits

	TokenService *service.TokenService
	UserService  *service.UserService

	// Database is probed by /readyz. Revocation is probed too when refresh
	// tokens live outside the database.
	Database   Pinger
	Revocation Pinger
}

func NewRouter(
	issuer *service.Issuer,
	buildVersion string,
	m *metrics.Metrics,
	limits httpx.RateLimits,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		metrics:      m,
		limits:       limits,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(r.limits.Lenient),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Grimoire Auth API
//	@version					0.1.0
//	@description				Credential lifecycle for the grimoire board tracker: registration, login, single-use refresh token rotation and logout.
//	@description
//	@description				Access tokens are HS256 JWTs valid for 15 minutes. Refresh tokens are HS256 JWTs signed with a separate secret and backed by a revocation record; each can be exchanged exactly once.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/grimoire
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
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern with request metrics labelled by the
// pattern.
func (r *Router) handle(pattern string, h http.Handler) {
	r.Mux.Handle(pattern, r.metrics.Instrument(pattern, h))
}

// authenticator adapts the issuer to the gateway.
func (r *Router) authenticator() httpx.Authenticator {
	return httpx.AuthenticatorFunc(func(token string) (httpx.Principal, error) {
		p, err := r.issuer.VerifyAccess(token)
		if err != nil {
			return httpx.Principal{}, err
		}
		return httpx.Principal{UserID: p.UserID, Email: p.Email, Role: string(p.Role)}, nil
	})
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	// Credential endpoints - strict rate limit by IP (brute force prevention)
	r.handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)

	// POST /logout - moderate rate limit
	r.handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
}

func (r *Router) registerAccount() {
	h := &AccountHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.authenticator()),
			httpx.RateLimitByUser(r.limits.Moderate),
		)
	}

	r.handle("GET /api/auth/me", secured(h.HandleMe))
	r.handle("GET /api/auth/sessions", secured(h.HandleSessions))
	r.handle("POST /api/auth/logout-all", secured(h.HandleLogoutAll))
	r.handle("GET /api/metrics", secured(StatsHandler(r.startTime, r.TokenService)))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Database, r.Revocation),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(r.metrics.Handler(),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}
