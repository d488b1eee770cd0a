package restaurants

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

func newTestRouter(t *testing.T, repo *memRepo) http.Handler {
	t.Helper()
	h := NewHandler(nil, newTestService(t, repo, nil))
	gate := authz.NewGate(authz.DefaultPolicies(time.Now), nil, nil)
	r := chi.NewRouter()
	gate.Mount(r, h.Routes()...)
	return r
}

func do(h http.Handler, method, path, body string, p *auth.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *p))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetRestaurantIsAnonymous(t *testing.T) {
	repo := newMemRepo()
	id := repo.add(ownedRestaurant(1))
	router := newTestRouter(t, repo)

	rr := do(router, http.MethodGet, "/api/restaurant/1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var dto RestaurantDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, id, dto.ID)
	assert.Equal(t, "Długa 5", dto.Street)

	rr = do(router, http.MethodGet, "/api/restaurant/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(router, http.MethodGet, "/api/restaurant/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRequiresNationalityClaim(t *testing.T) {
	repo := newMemRepo()
	repo.add(ownedRestaurant(1))
	router := newTestRouter(t, repo)

	rr := do(router, http.MethodGet, "/api/restaurant", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(router, http.MethodGet, "/api/restaurant", "", &auth.Principal{ID: 1, Role: auth.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	withNationality := &auth.Principal{ID: 1, Role: auth.RoleUser, Claims: map[string]string{auth.ClaimNationality: "Polish"}}
	rr = do(router, http.MethodGet, "/api/restaurant?page_size=5&search=kentucky", "", withNationality)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var page PagedResult[RestaurantDTO]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.TotalItemsCount)

	rr = do(router, http.MethodGet, "/api/restaurant?page_size=7", "", withNationality)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(router, http.MethodGet, "/api/restaurant?page=first", "", withNationality)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRejectsOverflowingPage(t *testing.T) {
	repo := newMemRepo()
	repo.add(ownedRestaurant(1))
	router := newTestRouter(t, repo)
	withNationality := &auth.Principal{ID: 1, Role: auth.RoleUser, Claims: map[string]string{auth.ClaimNationality: "Polish"}}

	rr := do(router, http.MethodGet, "/api/restaurant?page=1844674407370955162&page_size=10", "", withNationality)
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Contains(t, problem.Errors, "page")
}

func TestCreateRequiresPrivilegedRole(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(t, repo)
	body := `{"name":"KFC","category":"Fast Food","city":"Kraków","street":"Długa 5","postal_code":"30-001"}`

	rr := do(router, http.MethodPost, "/api/restaurant", body, &auth.Principal{ID: 4, Role: auth.RoleUser})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, repo.items)

	rr = do(router, http.MethodPost, "/api/restaurant", body, &auth.Principal{ID: 4, Role: auth.RoleManager})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/api/restaurant/1", rr.Header().Get("Location"))
	require.NotNil(t, repo.items[1].CreatedByID)
	assert.Equal(t, int64(4), *repo.items[1].CreatedByID)

	rr = do(router, http.MethodPost, "/api/restaurant", `{"name":"","city":"Kraków"}`, &auth.Principal{ID: 4, Role: auth.RoleAdmin})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateAndDeleteRespectOwnership(t *testing.T) {
	repo := newMemRepo()
	id := repo.add(ownedRestaurant(5))
	router := newTestRouter(t, repo)
	owner := &auth.Principal{ID: 5, Role: auth.RoleUser}
	stranger := &auth.Principal{ID: 6, Role: auth.RoleUser}

	rr := do(router, http.MethodPut, "/api/restaurant/1", `{"name":"Renamed"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(router, http.MethodPut, "/api/restaurant/1", `{"name":"Renamed"}`, stranger)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(router, http.MethodPut, "/api/restaurant/1", `{"name":"Renamed","has_delivery":true}`, owner)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Renamed", repo.items[id].Name)

	rr = do(router, http.MethodDelete, "/api/restaurant/1", "", stranger)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(router, http.MethodDelete, "/api/restaurant/1", "", owner)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, repo.items)

	rr = do(router, http.MethodDelete, "/api/restaurant/1", "", owner)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
