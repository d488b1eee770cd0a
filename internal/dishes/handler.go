package dishes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

const basePath = "/api/restaurant/{restaurantId}/dish"

// Handler wires HTTP endpoints for dishes.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes returns the dish route table.
func (h *Handler) Routes() []authz.Route {
	return []authz.Route{
		{Method: http.MethodPost, Pattern: basePath, Handler: http.HandlerFunc(h.create)},
		{Method: http.MethodGet, Pattern: basePath, Handler: http.HandlerFunc(h.list), Rule: authz.Rule{Anonymous: true}},
		{Method: http.MethodGet, Pattern: basePath + "/{dishId}", Handler: http.HandlerFunc(h.get), Rule: authz.Rule{Anonymous: true}},
		{Method: http.MethodDelete, Pattern: basePath, Handler: http.HandlerFunc(h.deleteAll)},
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	restaurantID, err := httpx.IDParam(r, "restaurantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateDishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.service.Create(r.Context(), restaurantID, req, p)
	if err != nil {
		h.fail(w, "create dish", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/restaurant/%d/dish/%d", restaurantID, id))
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := httpx.IDParam(r, "restaurantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.List(r.Context(), restaurantID)
	if err != nil {
		h.fail(w, "list dishes", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := httpx.IDParam(r, "restaurantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dishID, err := httpx.IDParam(r, "dishId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dto, err := h.service.Get(r.Context(), restaurantID, dishID)
	if err != nil {
		h.fail(w, "get dish", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto)
}

func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	restaurantID, err := httpx.IDParam(r, "restaurantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteAll(r.Context(), restaurantID, p); err != nil {
		h.fail(w, "delete dishes", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsExpected(err) && h.logger != nil {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
