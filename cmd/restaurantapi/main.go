package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/restaurant-api/restaurant-api/internal/app"
	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/authz"
	"github.com/restaurant-api/restaurant-api/internal/dishes"
	"github.com/restaurant-api/restaurant-api/internal/observability"
	"github.com/restaurant-api/restaurant-api/internal/platform/cache"
	"github.com/restaurant-api/restaurant-api/internal/platform/db"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
	"github.com/restaurant-api/restaurant-api/internal/restaurants"
	"github.com/restaurant-api/restaurant-api/internal/seed"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.SeedOnStart {
		if err := seed.NewSeeder(seed.NewPGStore(dbpool), logger).Seed(ctx); err != nil {
			logger.Error("seed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, running without cache", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	validator := httpx.NewValidator()
	tokens := auth.NewTokenIssuer(cfg.JWTKey, cfg.JWTIssuer, cfg.TokenTTL())
	authorizer := authz.NewResourceAuthorizer(logger, metrics)

	authService := auth.NewService(auth.NewRepository(dbpool), tokens, validator)
	restaurantService := restaurants.NewService(
		restaurants.NewRepository(dbpool),
		authorizer,
		cache.NewVersioned(redisClient, "restaurants", cfg.CacheTTL),
		validator,
		logger,
	)
	dishService := dishes.NewService(dishes.NewRepository(dbpool), restaurantService, validator)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		Tokens:             tokens,
		Gate:               authz.NewGate(authz.DefaultPolicies(time.Now), logger, metrics),
		Store:              dbpool,
		AuthHandler:        auth.NewHandler(logger, authService),
		RestaurantsHandler: restaurants.NewHandler(logger, restaurantService),
		DishesHandler:      dishes.NewHandler(logger, dishService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
