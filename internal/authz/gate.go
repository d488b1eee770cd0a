package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// Rule is the endpoint level requirement attached to a route. The zero Rule only requires an
// authenticated principal.
type Rule struct {
	Anonymous bool
	Roles     []auth.Role
	Policy    string
}

// Route is one entry of the route table.
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
	Rule    Rule
}

// Gate is the authorization stage of the pipeline.
type Gate struct {
	policies *Registry
	logger   *slog.Logger
	metrics  DenialRecorder
}

// NewGate constructs a Gate.
func NewGate(policies *Registry, logger *slog.Logger, metrics DenialRecorder) *Gate {
	return &Gate{policies: policies, logger: logger, metrics: metrics}
}

// Require enforces rule before the handler runs.
func (g *Gate) Require(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rule.Anonymous {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if len(rule.Roles) > 0 && !hasRole(p.Role, rule.Roles) {
				g.deny(w, r, "role", nil)
				return
			}
			if rule.Policy != "" {
				allowed, err := g.policies.Evaluate(rule.Policy, p)
				if err != nil || !allowed {
					g.deny(w, r, "policy", err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Mount registers every route with its rule.
func (g *Gate) Mount(r chi.Router, routes ...Route) {
	for _, rt := range routes {
		r.With(g.Require(rt.Rule)).Method(rt.Method, rt.Pattern, rt.Handler)
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, reason string, err error) {
	if g.logger != nil {
		attrs := []any{slog.String("reason", reason), slog.String("path", r.URL.Path)}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}
		g.logger.Info("route access denied", attrs...)
	}
	if g.metrics != nil {
		g.metrics.RecordDenial(reason)
	}
	httpx.RespondError(w, httpx.ErrForbidden)
}

func hasRole(role auth.Role, allowed []auth.Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}
