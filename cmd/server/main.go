package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"

	"github.com/predator49/train-reservation/internal/booking"
	"github.com/predator49/train-reservation/internal/cache"
	"github.com/predator49/train-reservation/internal/config"
	"github.com/predator49/train-reservation/internal/database"
	"github.com/predator49/train-reservation/internal/handler"
	"github.com/predator49/train-reservation/internal/middleware"
	"github.com/predator49/train-reservation/internal/queue"
	"github.com/predator49/train-reservation/internal/repository"
	"github.com/predator49/train-reservation/internal/router"
	"github.com/predator49/train-reservation/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database: migrate: %v", err)
	}

	opts := []booking.Option{booking.WithMaxSeatsPerBooking(cfg.MaxSeatsPerBooking)}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
		if cc := config.LoadSeatCacheConfig(); cc.Enabled {
			opts = append(opts, booking.WithSnapshotCache(cache.NewSeatCache(rdb, cc.Key, cc.TTL)))
		}
	}

	ev := config.LoadEventsConfig()
	if ev.Enabled {
		pub := service.NewPublisher(ev.URL, ev.Queue)
		defer pub.Close()
		opts = append(opts, booking.WithPublisher(pub))
	}
	if ev.ConsumerEnabled {
		go func() {
			if err := queue.StartSeatEventConsumer(ctx, ev.URL, ev.Queue, ev.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("seat-events: consumer stopped: %v", err)
			}
		}()
	}

	seats := booking.NewService(repository.NewSeatRepo(db), cfg.Layout, opts...)
	verifier := middleware.NewVerifier(cfg.JWTSecret)
	auth := handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), verifier)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, auth, verifier)
	router.RegisterSeats(e, handler.NewSeatHandler(seats), verifier, limiter)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, seats=%d)", addr, cfg.Env, cfg.Layout.Total())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
