package dishes

import (
	"context"
	"strings"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
)

// CreateDishRequest is the payload of POST /api/restaurant/{restaurantId}/dish.
type CreateDishRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// Restaurants is the parent lookup the dish service authorizes against.
type Restaurants interface {
	Authorize(ctx context.Context, p auth.Principal, id int64, op authz.Operation) (restaurants.Restaurant, error)
	Exists(ctx context.Context, id int64) error
	Invalidate(ctx context.Context)
}

// Service wraps dish business rules.
type Service struct {
	repo        Repository
	restaurants Restaurants
	validator   *httpx.Validator
}

// NewService constructs a new Service.
func NewService(repo Repository, parents Restaurants, validator *httpx.Validator) *Service {
	return &Service{repo: repo, restaurants: parents, validator: validator}
}

// Create adds a dish to a restaurant the caller may update.
func (s *Service) Create(ctx context.Context, restaurantID int64, req CreateDishRequest, p auth.Principal) (int64, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	if _, err := s.restaurants.Authorize(ctx, p, restaurantID, authz.OperationUpdate); err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, restaurants.Dish{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		RestaurantID: restaurantID,
	})
	if err != nil {
		return 0, err
	}
	s.restaurants.Invalidate(ctx)
	return id, nil
}

// List returns the menu of a restaurant.
func (s *Service) List(ctx context.Context, restaurantID int64) ([]restaurants.DishDTO, error) {
	if err := s.restaurants.Exists(ctx, restaurantID); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	out := make([]restaurants.DishDTO, 0, len(items))
	for _, d := range items {
		out = append(out, restaurants.DishToDTO(d))
	}
	return out, nil
}

// Get returns one dish. A dish of another restaurant is reported as not found.
func (s *Service) Get(ctx context.Context, restaurantID, dishID int64) (restaurants.DishDTO, error) {
	if err := s.restaurants.Exists(ctx, restaurantID); err != nil {
		return restaurants.DishDTO{}, err
	}
	d, err := s.repo.Get(ctx, restaurantID, dishID)
	if err != nil {
		return restaurants.DishDTO{}, err
	}
	return restaurants.DishToDTO(d), nil
}

// DeleteAll clears the menu of a restaurant the caller may delete.
func (s *Service) DeleteAll(ctx context.Context, restaurantID int64, p auth.Principal) error {
	if _, err := s.restaurants.Authorize(ctx, p, restaurantID, authz.OperationDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteAll(ctx, restaurantID); err != nil {
		return err
	}
	s.restaurants.Invalidate(ctx)
	return nil
}
