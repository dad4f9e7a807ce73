package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/database"
	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/idempotency"
	"github.com/iliyamo/cinema-ticketing/internal/lock"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/router"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	bus, err := queue.NewPublisher(cfg.RabbitURI)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer bus.Close()

	store := repository.NewStore(db)
	locks := lock.New(rdb)
	idem := idempotency.New(rdb, cfg.IdempotencyTTL)
	svc := service.NewReservations(store, locks, idem, bus, cfg.ReservationTTL)
	reaper := service.NewReaper(store, locks, bus, cfg.ReaperPeriod, cfg.ReaperLockTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reaper.Run(ctx)

	policy := queue.RetryPolicy{
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
		MaxRetries: cfg.MaxRetries,
	}
	go func() {
		if err := queue.Consume(ctx, cfg.RabbitURI, queue.EmailNotificationQueue, policy, queue.LogSales); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	if cfg.Debug() {
		e.Use(echomw.Logger())
	}

	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e,
		handler.NewReservationHandler(svc),
		handler.NewSessionHandler(svc),
		limit,
	)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil {
			log.Printf("http server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
