package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/restaurant-api/restaurant-api/internal/app"
	"github.com/restaurant-api/restaurant-api/internal/platform/db"
	"github.com/restaurant-api/restaurant-api/internal/seed"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Ensuring schema...")
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	fmt.Println("→ Seeding roles and demo restaurants...")
	if err := seed.NewSeeder(seed.NewPGStore(pool), app.NewLogger(cfg)).Seed(ctx); err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}
