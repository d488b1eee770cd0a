package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/platform/db"
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Ping checks connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CountRoles returns the number of stored roles.
func (s *PGStore) CountRoles(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n)
	return n, err
}

// InsertRoles stores roles with IDs following their order, so the first role gets ID 1.
func (s *PGStore) InsertRoles(ctx context.Context, roles []auth.Role) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for i, role := range roles {
			if _, err := tx.Exec(ctx, `
				INSERT INTO roles (id, name) VALUES ($1, $2)
				ON CONFLICT (id) DO NOTHING`, i+1, string(role)); err != nil {
				return fmt.Errorf("insert role %s: %w", role, err)
			}
		}
		_, err := tx.Exec(ctx, `SELECT setval('roles_id_seq', (SELECT MAX(id) FROM roles))`)
		return err
	})
}

// CountRestaurants returns the number of stored restaurants.
func (s *PGStore) CountRestaurants(ctx context.Context) (int, error) {
	return restaurants.NewRepository(s.pool).Count(ctx)
}

// InsertRestaurants stores every restaurant graph in one transaction.
func (s *PGStore) InsertRestaurants(ctx context.Context, items []restaurants.Restaurant) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, it := range items {
			if _, err := restaurants.InsertGraph(ctx, tx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ Store = (*PGStore)(nil)
