package restaurants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restaurant-api/restaurant-api/internal/platform/db"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// Repository defines persistence operations for restaurants.
type Repository interface {
	List(ctx context.Context, q ListQuery) ([]Restaurant, int, error)
	Get(ctx context.Context, id int64) (Restaurant, error)
	Create(ctx context.Context, r Restaurant) (int64, error)
	Update(ctx context.Context, r Restaurant) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectRestaurant = `
	SELECT r.id, r.name, COALESCE(r.description, ''), COALESCE(r.category, ''), r.has_delivery,
	       COALESCE(r.contact_email, ''), COALESCE(r.contact_number, ''), r.created_by_id,
	       a.id, a.city, a.street, COALESCE(a.postal_code, '')
	FROM restaurants r
	JOIN addresses a ON a.id = r.address_id`

var sortColumns = map[string]string{
	"name":        "r.name",
	"description": "r.description",
	"category":    "r.category",
}

// List returns one page of restaurants matching q and the total number of matches.
func (r *PGRepository) List(ctx context.Context, q ListQuery) ([]Restaurant, int, error) {
	where, args := listFilter(q.Search)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants r `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("restaurants: count: %w", err)
	}

	query := selectRestaurant + " " + where + " ORDER BY " + listOrder(q) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("restaurants: list: %w", err)
	}
	defer rows.Close()

	var items []Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("restaurants: scan: %w", err)
		}
		items = append(items, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("restaurants: list rows: %w", err)
	}
	if err := r.attachDishes(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func listFilter(search string) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	return `WHERE (r.name ILIKE $1 OR r.description ILIKE $1)`, []any{"%" + search + "%"}
}

func listOrder(q ListQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		return "r.id"
	}
	dir := "ASC"
	if q.SortDir == "desc" {
		dir = "DESC"
	}
	return col + " " + dir + ", r.id"
}

// Get loads a restaurant with its address and dishes.
func (r *PGRepository) Get(ctx context.Context, id int64) (Restaurant, error) {
	rest, err := scanRestaurant(r.pool.QueryRow(ctx, selectRestaurant+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Restaurant{}, httpx.ErrNotFound
		}
		return Restaurant{}, fmt.Errorf("restaurants: get: %w", err)
	}
	items := []Restaurant{rest}
	if err := r.attachDishes(ctx, items); err != nil {
		return Restaurant{}, err
	}
	return items[0], nil
}

func (r *PGRepository) attachDishes(ctx context.Context, items []Restaurant) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
		index[it.ID] = i
		items[i].Dishes = []Dish{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price, restaurant_id
		FROM dishes
		WHERE restaurant_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("restaurants: dishes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.RestaurantID); err != nil {
			return fmt.Errorf("restaurants: scan dish: %w", err)
		}
		i := index[d.RestaurantID]
		items[i].Dishes = append(items[i].Dishes, d)
	}
	return rows.Err()
}

// Create stores the restaurant, its address and any dishes in one transaction.
func (r *PGRepository) Create(ctx context.Context, rest Restaurant) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		id, err = InsertGraph(ctx, tx, rest)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertGraph writes address, restaurant and dishes using q, which is usually a transaction.
func InsertGraph(ctx context.Context, q db.Querier, rest Restaurant) (int64, error) {
	var addressID int64
	err := q.QueryRow(ctx, `
		INSERT INTO addresses (city, street, postal_code)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id`, rest.Address.City, rest.Address.Street, rest.Address.PostalCode).Scan(&addressID)
	if err != nil {
		return 0, fmt.Errorf("restaurants: insert address: %w", err)
	}

	var id int64
	err = q.QueryRow(ctx, `
		INSERT INTO restaurants (name, description, category, has_delivery, contact_email, contact_number, address_id, created_by_id)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		RETURNING id`,
		rest.Name, rest.Description, rest.Category, rest.HasDelivery, rest.ContactEmail, rest.ContactNumber,
		addressID, rest.CreatedByID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("restaurants: insert restaurant: %w", err)
	}

	for _, d := range rest.Dishes {
		_, err := q.Exec(ctx, `
			INSERT INTO dishes (name, description, price, restaurant_id)
			VALUES ($1, NULLIF($2, ''), $3, $4)`, d.Name, d.Description, d.Price, id)
		if err != nil {
			return 0, fmt.Errorf("restaurants: insert dish: %w", err)
		}
	}
	return id, nil
}

// Update overwrites the mutable fields of a restaurant.
func (r *PGRepository) Update(ctx context.Context, rest Restaurant) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE restaurants
		SET name = $2, description = NULLIF($3, ''), has_delivery = $4, updated_at = NOW()
		WHERE id = $1`, rest.ID, rest.Name, rest.Description, rest.HasDelivery)
	if err != nil {
		return fmt.Errorf("restaurants: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes the restaurant and its address. Dishes cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var addressID int64
		err := tx.QueryRow(ctx, `DELETE FROM restaurants WHERE id = $1 RETURNING address_id`, id).Scan(&addressID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.ErrNotFound
			}
			return fmt.Errorf("restaurants: delete: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, addressID); err != nil {
			return fmt.Errorf("restaurants: delete address: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored restaurants.
func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("restaurants: count: %w", err)
	}
	return n, nil
}

func scanRestaurant(row pgx.Row) (Restaurant, error) {
	var rest Restaurant
	err := row.Scan(
		&rest.ID, &rest.Name, &rest.Description, &rest.Category, &rest.HasDelivery,
		&rest.ContactEmail, &rest.ContactNumber, &rest.CreatedByID,
		&rest.Address.ID, &rest.Address.City, &rest.Address.Street, &rest.Address.PostalCode,
	)
	return rest, err
}

var _ Repository = (*PGRepository)(nil)
