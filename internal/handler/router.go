package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sortify-app/sortify/backend/internal/handler/account"
	"github.com/sortify-app/sortify/backend/internal/handler/auth"
	"github.com/sortify-app/sortify/backend/internal/handler/chat"
	"github.com/sortify-app/sortify/backend/internal/handler/persona"
	middlewarePkg "github.com/sortify-app/sortify/backend/internal/middleware"
	personaModel "github.com/sortify-app/sortify/backend/internal/model/persona"
	"github.com/sortify-app/sortify/backend/internal/observability"
	accountService "github.com/sortify-app/sortify/backend/internal/service/account"
	authService "github.com/sortify-app/sortify/backend/internal/service/auth"
	chatService "github.com/sortify-app/sortify/backend/internal/service/chat"
	"github.com/sortify-app/sortify/backend/pkg/utils"
)

// Deps are the services the router wires into handlers. AuthProvider is nil
// when the auth/storage provider is not configured.
type Deps struct {
	Personas     personaModel.Store
	Resolver     authService.IdentityResolver
	AuthProvider auth.Provider
	AuthConfig   auth.Config
	Chat         *chatService.Service
	Accounts     *accountService.Service
	Metrics      *observability.Metrics
	Gatherer     prometheus.Gatherer
	CORSOrigin   string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORSOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	persona.New(deps.Personas).RegisterRoutes(r)
	auth.New(deps.AuthProvider, deps.Resolver, deps.AuthConfig).RegisterRoutes(r)
	account.New(deps.Accounts, deps.Resolver).RegisterRoutes(r)
	chat.New(deps.Chat, deps.Resolver, deps.Metrics).RegisterRoutes(r)

	return r
}
