package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/pkg/httpx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"

	_ "github.com/catedeguzman-it/finmark-sub001/api/access" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	InvitationService *service.InvitationService
	UserService       *service.UserService
	IdentityService   *service.IdentityService

	// Table decides permissions; nil means rbac.Default.
	Table *rbac.Table

	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer

	// InviteLinkBase is the page invitees land on; the token is appended as
	// ?token=. Empty omits accept_url from creation responses.
	InviteLinkBase string
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	if r.Table == nil {
		r.Table = rbac.Default
	}

	r.registerInvitations()
	r.registerInvitationTokens()
	r.registerMe()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			FinMark Access Service API
//	@version		0.1.0
//	@description	Organization invitations, role based permissions and dashboard category visibility for the FinMark dashboard.
//	@description
//	@description				Callers authenticate with an identity provider access token. Role and organization always come from the service's own membership records.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity provider access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{
		Invitations:    r.InvitationService,
		Table:          r.Table,
		InviteLinkBase: r.InviteLinkBase,
	}

	// Writes - moderate rate limit by user
	r.Mux.Handle("POST /v1/invitations",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.identity(),
			r.requirePermission(rbac.PermInviteUsers),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/invitations/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			r.identity(),
			r.requirePermission(rbac.PermManageUsers),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/{id}/expire",
		httpx.Chain(http.HandlerFunc(h.HandleExpire),
			r.identity(),
			r.requirePermission(rbac.PermInviteUsers),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Reads - lenient rate limit by user
	r.Mux.Handle("GET /v1/organizations/{orgID}/invitations",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.identity(),
			r.requirePermission(rbac.PermManageUsers),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/invitations/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.identity(),
			r.requirePermission(rbac.PermManageUsers),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerInvitationTokens() {
	h := &InvitationTokenHandler{
		Invitations: r.InvitationService,
		Users:       r.UserService,
		Table:       r.Table,
	}

	// Token holders - strict rate limit, since the token is the only secret
	r.Mux.Handle("GET /v1/invitations/lookup",
		httpx.Chain(http.HandlerFunc(h.HandleLookup),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/decline",
		httpx.Chain(http.HandlerFunc(h.HandleDecline),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Accepting needs a verified subject but, by definition, no membership yet.
	r.Mux.Handle("POST /v1/invitations/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{Table: r.Table}

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.identity(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/dashboards/categories",
		httpx.Chain(http.HandlerFunc(h.HandleCategories),
			r.identity(),
			r.requirePermission(rbac.PermViewDashboards),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/roles",
		httpx.Chain(http.HandlerFunc(h.HandleRoles),
			r.identity(),
			r.requirePermission(rbac.PermManageUsers),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics",
			httpx.Chain(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}),
				httpx.RateLimitByIP(httpx.PublicLimit),
			),
		)
	}
}
