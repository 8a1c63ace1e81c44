package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/config"
	"github.com/tischplan/restaurant-reservation/internal/database"
	"github.com/tischplan/restaurant-reservation/internal/handler"
	"github.com/tischplan/restaurant-reservation/internal/middleware"
	"github.com/tischplan/restaurant-reservation/internal/queue"
	"github.com/tischplan/restaurant-reservation/internal/repository"
	"github.com/tischplan/restaurant-reservation/internal/router"
)

func main() {
	// Missing .env is fine in containerized deployments where the
	// environment comes from the orchestrator.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(database.Config{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the cache and rate limiter turn
	// into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	restaurantRepo := repository.NewRestaurantRepo(db)
	hourRepo := repository.NewBusinessHourRepo(db)
	tableRepo := repository.NewTableRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	ownerHandler := handler.NewOwnerHandler(restaurantRepo, hourRepo, tableRepo)
	reservationHandler := handler.NewReservationHandler(restaurantRepo, hourRepo, tableRepo, reservationRepo)
	publicHandler := handler.NewPublicHandler(restaurantRepo, hourRepo, tableRepo)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	auth := router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterOwner(auth, ownerHandler)
	router.RegisterReservations(auth, reservationHandler)
	router.RegisterPublic(e, publicHandler, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
