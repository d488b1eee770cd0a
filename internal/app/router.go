package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/dishes"
	"github.com/restaurant-api/restaurant-api/internal/observability"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
	"github.com/restaurant-api/restaurant-api/web"
)

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Metrics            *observability.Metrics
	Tokens             auth.TokenParser
	Gate               *authz.Gate
	Store              Pinger
	AuthHandler        *auth.Handler
	RestaurantsHandler *restaurants.Handler
	DishesHandler      *dishes.Handler
}

// NewRouter constructs the chi.Router with the request pipeline and every API route.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range Pipeline(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Tokens:  params.Tokens,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Store != nil {
			if err := params.Store.Ping(r.Context()); err != nil {
				if params.Logger != nil {
					params.Logger.Warn("health check failed", slog.Any("error", err))
				}
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	gate := params.Gate
	if gate == nil {
		gate = authz.NewGate(authz.DefaultPolicies(nil), params.Logger, params.Metrics)
	}
	if params.AuthHandler != nil {
		gate.Mount(r,
			authz.Route{Method: http.MethodPost, Pattern: "/api/account/register", Handler: params.AuthHandler.RegisterHandler(), Rule: authz.Rule{Anonymous: true}},
			authz.Route{Method: http.MethodPost, Pattern: "/api/account/login", Handler: params.AuthHandler.LoginHandler(), Rule: authz.Rule{Anonymous: true}},
		)
	}
	if params.RestaurantsHandler != nil {
		gate.Mount(r, params.RestaurantsHandler.Routes()...)
	}
	if params.DishesHandler != nil {
		gate.Mount(r, params.DishesHandler.Routes()...)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers and proxies cache static files for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
