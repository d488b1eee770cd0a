// Package seed populates an empty database with the roles and demo data the API expects.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
)

// Store is the persistence the seeder needs.
type Store interface {
	Ping(ctx context.Context) error
	CountRoles(ctx context.Context) (int, error)
	InsertRoles(ctx context.Context, roles []auth.Role) error
	CountRestaurants(ctx context.Context) (int, error)
	InsertRestaurants(ctx context.Context, items []restaurants.Restaurant) error
}

// Seeder fills missing reference and demo data. Running it repeatedly is safe.
type Seeder struct {
	store  Store
	logger *slog.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(store Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, logger: logger}
}

// Seed inserts roles when none exist and the demo restaurants when the directory is empty.
// An unreachable store is logged and skipped.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "seed skipped, store unreachable", slog.Any("error", err))
		return nil
	}

	roles, err := s.store.CountRoles(ctx)
	if err != nil {
		return fmt.Errorf("seed: count roles: %w", err)
	}
	if roles == 0 {
		if err := s.store.InsertRoles(ctx, auth.Roles()); err != nil {
			return fmt.Errorf("seed: insert roles: %w", err)
		}
		s.logger.InfoContext(ctx, "seeded roles", slog.Int("count", len(auth.Roles())))
	}

	count, err := s.store.CountRestaurants(ctx)
	if err != nil {
		return fmt.Errorf("seed: count restaurants: %w", err)
	}
	if count == 0 {
		demo := DemoRestaurants()
		if err := s.store.InsertRestaurants(ctx, demo); err != nil {
			return fmt.Errorf("seed: insert restaurants: %w", err)
		}
		s.logger.InfoContext(ctx, "seeded restaurants", slog.Int("count", len(demo)))
	}
	return nil
}

// DemoRestaurants is the initial directory content.
func DemoRestaurants() []restaurants.Restaurant {
	return []restaurants.Restaurant{
		{
			Name:          "KFC",
			Category:      "Fast Food",
			Description:   "Kentucky Fried Chicken",
			ContactEmail:  "contact@kfc.com",
			ContactNumber: "512234567",
			HasDelivery:   true,
			Dishes: []restaurants.Dish{
				{Name: "Nashville Hot Chicken", Description: "Short Description", Price: 10.30},
				{Name: "Chicken Nuggets", Description: "Short Description", Price: 5.30},
			},
			Address: restaurants.Address{
				City:       "Kraków",
				Street:     "Długa 5",
				PostalCode: "30-001",
			},
		},
	}
}
