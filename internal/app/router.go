package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-hr/meridian/internal/analytics"
	"github.com/meridian-hr/meridian/internal/auth"
	"github.com/meridian-hr/meridian/internal/governance"
	"github.com/meridian-hr/meridian/internal/observability"
	"github.com/meridian-hr/meridian/internal/policy"
	"github.com/meridian-hr/meridian/internal/workflow"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	WorkflowHandler   *workflow.Handler
	PolicyHandler     *policy.Handler
	GovernanceHandler *governance.Handler
	AnalyticsHandler  *analytics.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountPublic(r)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthService.Authenticator)
				params.AuthHandler.MountProtected(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.AuthService.Authenticator)

			r.Route("/users", params.AuthHandler.MountUsers)
			r.Route("/workflows", params.WorkflowHandler.MountRoutes)
			r.Route("/policies", params.PolicyHandler.MountRoutes)
			r.Route("/governance", params.GovernanceHandler.MountRoutes)
			r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		})
	})

	return r
}
