package dishes

import (
	"context"
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
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
	_ "github.com/restaurant-api/restaurant-api/testing"
)

type memDishes struct {
	items  []restaurants.Dish
	nextID int64
}

func (m *memDishes) List(ctx context.Context, restaurantID int64) ([]restaurants.Dish, error) {
	out := []restaurants.Dish{}
	for _, d := range m.items {
		if d.RestaurantID == restaurantID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDishes) Get(ctx context.Context, restaurantID, dishID int64) (restaurants.Dish, error) {
	for _, d := range m.items {
		if d.ID == dishID && d.RestaurantID == restaurantID {
			return d, nil
		}
	}
	return restaurants.Dish{}, httpx.ErrNotFound
}

func (m *memDishes) Create(ctx context.Context, d restaurants.Dish) (int64, error) {
	m.nextID++
	d.ID = m.nextID
	m.items = append(m.items, d)
	return d.ID, nil
}

func (m *memDishes) DeleteAll(ctx context.Context, restaurantID int64) error {
	kept := m.items[:0]
	for _, d := range m.items {
		if d.RestaurantID != restaurantID {
			kept = append(kept, d)
		}
	}
	m.items = kept
	return nil
}

// parents knows restaurants 1 (owned by user 5) and 2 (owned by user 6).
type parents struct {
	owners      map[int64]int64
	invalidated int
}

func (p *parents) lookup(id int64) (restaurants.Restaurant, error) {
	owner, ok := p.owners[id]
	if !ok {
		return restaurants.Restaurant{}, httpx.ErrNotFound
	}
	return restaurants.Restaurant{ID: id, CreatedByID: &owner}, nil
}

func (p *parents) Authorize(ctx context.Context, pr auth.Principal, id int64, op authz.Operation) (restaurants.Restaurant, error) {
	rest, err := p.lookup(id)
	if err != nil {
		return rest, err
	}
	return rest, authz.NewResourceAuthorizer(nil, nil).Authorize(ctx, pr, rest, op)
}

func (p *parents) Exists(ctx context.Context, id int64) error {
	_, err := p.lookup(id)
	return err
}

func (p *parents) Invalidate(ctx context.Context) { p.invalidated++ }

func newTestRouter(t *testing.T) (http.Handler, *memDishes, *parents) {
	t.Helper()
	repo := &memDishes{}
	owners := &parents{owners: map[int64]int64{1: 5, 2: 6}}
	h := NewHandler(nil, NewService(repo, owners, httpx.NewValidator()))
	r := chi.NewRouter()
	authz.NewGate(authz.DefaultPolicies(time.Now), nil, nil).Mount(r, h.Routes()...)
	return r, repo, owners
}

func do(h http.Handler, method, path, body string, p *auth.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *p))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateDishRequiresParentOwnership(t *testing.T) {
	router, repo, owners := newTestRouter(t)
	body := `{"name":"Nashville Hot Chicken","description":"Short Description","price":10.30}`

	rr := do(router, http.MethodPost, "/api/restaurant/1/dish", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(router, http.MethodPost, "/api/restaurant/1/dish", body, &auth.Principal{ID: 6, Role: auth.RoleUser})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, repo.items)

	rr = do(router, http.MethodPost, "/api/restaurant/1/dish", body, &auth.Principal{ID: 5, Role: auth.RoleUser})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/api/restaurant/1/dish/1", rr.Header().Get("Location"))
	assert.Equal(t, 1, owners.invalidated)

	rr = do(router, http.MethodPost, "/api/restaurant/9/dish", body, &auth.Principal{ID: 1, Role: auth.RoleAdmin})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(router, http.MethodPost, "/api/restaurant/1/dish", `{"name":"Free","price":-1}`, &auth.Principal{ID: 1, Role: auth.RoleAdmin})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReadDishesAnonymously(t *testing.T) {
	router, repo, _ := newTestRouter(t)
	_, _ = repo.Create(context.Background(), restaurants.Dish{Name: "Chicken Nuggets", Price: 5.30, RestaurantID: 1})
	_, _ = repo.Create(context.Background(), restaurants.Dish{Name: "Zinger", Price: 7.10, RestaurantID: 2})

	rr := do(router, http.MethodGet, "/api/restaurant/1/dish", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []restaurants.DishDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Chicken Nuggets", list[0].Name)

	rr = do(router, http.MethodGet, "/api/restaurant/1/dish/1", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(router, http.MethodGet, "/api/restaurant/1/dish/2", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "dish of another restaurant")

	rr = do(router, http.MethodGet, "/api/restaurant/7/dish", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteDishesRequiresParentOwnership(t *testing.T) {
	router, repo, _ := newTestRouter(t)
	_, _ = repo.Create(context.Background(), restaurants.Dish{Name: "Chicken Nuggets", RestaurantID: 1})
	_, _ = repo.Create(context.Background(), restaurants.Dish{Name: "Zinger", RestaurantID: 2})

	rr := do(router, http.MethodDelete, "/api/restaurant/1/dish", "", &auth.Principal{ID: 6, Role: auth.RoleUser})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Len(t, repo.items, 2)

	rr = do(router, http.MethodDelete, "/api/restaurant/1/dish", "", &auth.Principal{ID: 2, Role: auth.RoleManager})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, repo.items, 1)
	assert.Equal(t, int64(2), repo.items[0].RestaurantID)
}
