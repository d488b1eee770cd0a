package restaurants

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

const (
	basePath        = "/api/restaurant"
	defaultPageSize = 10
)

// Handler wires HTTP endpoints for restaurants.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes returns the restaurant route table with the access rule of each endpoint.
func (h *Handler) Routes() []authz.Route {
	return []authz.Route{
		{Method: http.MethodGet, Pattern: basePath, Handler: http.HandlerFunc(h.list), Rule: authz.Rule{Policy: authz.PolicyHasNationality}},
		{Method: http.MethodGet, Pattern: basePath + "/{id}", Handler: http.HandlerFunc(h.get), Rule: authz.Rule{Anonymous: true}},
		{Method: http.MethodPost, Pattern: basePath, Handler: http.HandlerFunc(h.create), Rule: authz.Rule{Roles: []auth.Role{auth.RoleAdmin, auth.RoleManager}}},
		{Method: http.MethodPut, Pattern: basePath + "/{id}", Handler: http.HandlerFunc(h.update)},
		{Method: http.MethodDelete, Pattern: basePath + "/{id}", Handler: http.HandlerFunc(h.delete)},
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.List(r.Context(), q)
	if err != nil {
		h.fail(w, "list restaurants", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dto, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get restaurant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateRestaurantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.service.Create(r.Context(), req, p.ID)
	if err != nil {
		h.fail(w, "create restaurant", err)
		return
	}
	w.Header().Set("Location", basePath+"/"+strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRestaurantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, req, p); err != nil {
		h.fail(w, "update restaurant", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, p); err != nil {
		h.fail(w, "delete restaurant", err)
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

func parseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Search:   values.Get("search"),
		Page:     1,
		PageSize: defaultPageSize,
		SortBy:   values.Get("sort_by"),
		SortDir:  values.Get("sort_dir"),
	}
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, httpx.NewValidationError("page", "must be a number")
		}
		q.Page = n
	}
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, httpx.NewValidationError("page_size", "must be a number")
		}
		q.PageSize = n
	}
	return q, nil
}
