// Package dishes manages the menu of a restaurant.
package dishes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
)

// Repository defines persistence operations for dishes.
type Repository interface {
	List(ctx context.Context, restaurantID int64) ([]restaurants.Dish, error)
	Get(ctx context.Context, restaurantID, dishID int64) (restaurants.Dish, error)
	Create(ctx context.Context, d restaurants.Dish) (int64, error)
	DeleteAll(ctx context.Context, restaurantID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns the dishes of a restaurant ordered by ID.
func (r *PGRepository) List(ctx context.Context, restaurantID int64) ([]restaurants.Dish, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price, restaurant_id
		FROM dishes
		WHERE restaurant_id = $1
		ORDER BY id`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("dishes: list: %w", err)
	}
	defer rows.Close()

	out := []restaurants.Dish{}
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("dishes: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns one dish, scoped to its restaurant.
func (r *PGRepository) Get(ctx context.Context, restaurantID, dishID int64) (restaurants.Dish, error) {
	d, err := scanDish(r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), price, restaurant_id
		FROM dishes
		WHERE id = $1 AND restaurant_id = $2`, dishID, restaurantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return restaurants.Dish{}, httpx.ErrNotFound
		}
		return restaurants.Dish{}, fmt.Errorf("dishes: get: %w", err)
	}
	return d, nil
}

// Create inserts a dish and returns its ID.
func (r *PGRepository) Create(ctx context.Context, d restaurants.Dish) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dishes (name, description, price, restaurant_id)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING id`, d.Name, d.Description, d.Price, d.RestaurantID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("dishes: create: %w", err)
	}
	return id, nil
}

// DeleteAll removes every dish of a restaurant.
func (r *PGRepository) DeleteAll(ctx context.Context, restaurantID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM dishes WHERE restaurant_id = $1`, restaurantID); err != nil {
		return fmt.Errorf("dishes: delete: %w", err)
	}
	return nil
}

func scanDish(row pgx.Row) (restaurants.Dish, error) {
	var d restaurants.Dish
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.RestaurantID)
	return d, err
}

var _ Repository = (*PGRepository)(nil)
