package restaurants

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/platform/cache"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// Service wraps restaurant business rules.
type Service struct {
	repo       Repository
	authorizer *authz.ResourceAuthorizer
	cache      *cache.Versioned
	validator  *httpx.Validator
	logger     *slog.Logger
}

// NewService constructs a new Service. A nil cache reads straight from the repository.
func NewService(repo Repository, authorizer *authz.ResourceAuthorizer, c *cache.Versioned, validator *httpx.Validator, logger *slog.Logger) *Service {
	return &Service{repo: repo, authorizer: authorizer, cache: c, validator: validator, logger: logger}
}

// List returns one page of restaurants.
func (s *Service) List(ctx context.Context, q ListQuery) (PagedResult[RestaurantDTO], error) {
	if err := s.validator.Struct(q); err != nil {
		return PagedResult[RestaurantDTO]{}, err
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return PagedResult[RestaurantDTO]{}, err
	}
	dtos := make([]RestaurantDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, ToDTO(it))
	}
	return NewPagedResult(dtos, total, q), nil
}

// Get returns the restaurant detail, served from cache when possible.
func (s *Service) Get(ctx context.Context, id int64) (RestaurantDTO, error) {
	var (
		dto     RestaurantDTO
		loadErr error
	)
	err := s.cache.FetchJSON(ctx, &dto, func(ctx context.Context) (any, error) {
		rest, err := s.repo.Get(ctx, id)
		if err != nil {
			loadErr = err
			return nil, err
		}
		return ToDTO(rest), nil
	}, "detail", strconv.FormatInt(id, 10))
	if loadErr != nil {
		return RestaurantDTO{}, loadErr
	}
	// Callers coalesced onto another loader only see its error.
	if httpx.IsExpected(err) {
		return RestaurantDTO{}, err
	}
	if err != nil {
		s.warn(ctx, "restaurant cache read failed", err)
		rest, err := s.repo.Get(ctx, id)
		if err != nil {
			return RestaurantDTO{}, err
		}
		return ToDTO(rest), nil
	}
	return dto, nil
}

// Create validates and stores a restaurant owned by ownerID, returning its ID.
func (s *Service) Create(ctx context.Context, req CreateRestaurantRequest, ownerID int64) (int64, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	owner := ownerID
	return s.repo.Create(ctx, Restaurant{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		HasDelivery:   req.HasDelivery,
		ContactEmail:  req.ContactEmail,
		ContactNumber: req.ContactNumber,
		CreatedByID:   &owner,
		Address: Address{
			City:       req.City,
			Street:     req.Street,
			PostalCode: req.PostalCode,
		},
	})
}

// Update changes name, description and delivery flag once the caller is authorized.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRestaurantRequest, p auth.Principal) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	rest, err := s.Authorize(ctx, p, id, authz.OperationUpdate)
	if err != nil {
		return err
	}
	rest.Name = req.Name
	rest.Description = req.Description
	rest.HasDelivery = req.HasDelivery
	if err := s.repo.Update(ctx, rest); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Delete removes the restaurant once the caller is authorized.
func (s *Service) Delete(ctx context.Context, id int64, p auth.Principal) error {
	if _, err := s.Authorize(ctx, p, id, authz.OperationDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Authorize loads the restaurant uncached and checks that p may perform op on it.
// A missing restaurant yields httpx.ErrNotFound before any authorization decision.
func (s *Service) Authorize(ctx context.Context, p auth.Principal, id int64, op authz.Operation) (Restaurant, error) {
	rest, err := s.repo.Get(ctx, id)
	if err != nil {
		return Restaurant{}, err
	}
	if err := s.authorizer.Authorize(ctx, p, rest, op); err != nil {
		return Restaurant{}, err
	}
	return rest, nil
}

// Exists returns httpx.ErrNotFound when the restaurant is missing.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.repo.Get(ctx, id)
	return err
}

// Invalidate drops every cached restaurant detail.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.warn(ctx, "restaurant cache invalidation failed", err)
	}
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, slog.Any("error", err))
	}
}
