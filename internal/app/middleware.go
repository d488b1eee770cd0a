package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/observability"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

const defaultSlowRequestThreshold = 4 * time.Second

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Tokens  auth.TokenParser
	Now     func() time.Time
}

// ErrorBoundary turns a panic anywhere below it into the generic 500 response. Nothing is written
// when the handler already started its response. http.ErrAbortHandler is re-raised so net/http
// aborts the connection as intended. The request ID is taken from the response header set by
// EchoRequestID, since the boundary runs before the ID is put in the context.
func ErrorBoundary(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if logger != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", ww.Header().Get(middleware.RequestIDHeader)),
						slog.String("stack", string(debug.Stack())),
					)
				}
				if ww.Status() == 0 {
					httpx.RespondError(ww, fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// EchoRequestID returns the request ID assigned by middleware.RequestID in the response headers.
func EchoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestTimer logs requests slower than Threshold, once per request.
type RequestTimer struct {
	Logger    *slog.Logger
	Threshold time.Duration
	Now       func() time.Time
	OnSlow    func()
}

// Middleware measures the wrapped handler.
func (t RequestTimer) Middleware(next http.Handler) http.Handler {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	threshold := t.Threshold
	if threshold <= 0 {
		threshold = defaultSlowRequestThreshold
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := now()
		defer func() {
			elapsed := now().Sub(start)
			if elapsed <= threshold {
				return
			}
			if t.Logger != nil {
				t.Logger.WarnContext(r.Context(), "slow request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int64("elapsed_ms", elapsed.Milliseconds()),
				)
			}
			if t.OnSlow != nil {
				t.OnSlow()
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Pipeline returns the ordered middleware chain, outermost first. The error boundary wraps every
// other stage. Route level authorization is attached per route by authz.Gate.
func Pipeline(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !cfg.Config.IsProduction(),
	})

	timeout := 10 * time.Second
	threshold := defaultSlowRequestThreshold
	rateLimit := 120
	var origins []string
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.SlowRequestThreshold > 0 {
			threshold = cfg.Config.SlowRequestThreshold
		}
		if cfg.Config.RateLimitPerMinute > 0 {
			rateLimit = cfg.Config.RateLimitPerMinute
		}
		origins = cfg.Config.CORSOrigins
	}

	timer := RequestTimer{Logger: cfg.Logger, Threshold: threshold, Now: cfg.Now}
	if cfg.Metrics != nil {
		timer.OnSlow = cfg.Metrics.RecordSlowRequest
	}

	return []func(http.Handler) http.Handler{
		ErrorBoundary(cfg.Logger),
		middleware.RequestID,
		EchoRequestID,
		middleware.RealIP,
		cfg.Metrics.Middleware,
		timer.Middleware,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					if cfg.Logger != nil {
						cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					}
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Location", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.Compress(5),
		httprate.Limit(rateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
			}),
		),
		auth.Authenticate(cfg.Tokens, cfg.Logger),
	}
}
