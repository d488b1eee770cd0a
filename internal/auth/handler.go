package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Handler wires HTTP endpoints for account flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
	limiter func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		limiter: httprate.Limit(loginRateLimit, loginRateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "too many login attempts")
			}),
		),
	}
}

// RegisterHandler returns the register endpoint.
func (h *Handler) RegisterHandler() http.Handler {
	return http.HandlerFunc(h.register)
}

// LoginHandler returns the login endpoint wrapped in its rate limiter.
func (h *Handler) LoginHandler() http.Handler {
	return h.limiter(http.HandlerFunc(h.login))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.fail(w, "register account", err)
		return
	}
	w.Header().Set("Location", "/api/account/"+strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, LoginResponse{Token: token})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsExpected(err) && h.logger != nil {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
