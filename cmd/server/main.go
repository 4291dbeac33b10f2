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

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/config"
	"github.com/iliyamo/pet-boarding-reservation/internal/database"
	"github.com/iliyamo/pet-boarding-reservation/internal/handler"
	"github.com/iliyamo/pet-boarding-reservation/internal/middleware"
	"github.com/iliyamo/pet-boarding-reservation/internal/notify"
	"github.com/iliyamo/pet-boarding-reservation/internal/queue"
	"github.com/iliyamo/pet-boarding-reservation/internal/repository"
	"github.com/iliyamo/pet-boarding-reservation/internal/router"
	"github.com/iliyamo/pet-boarding-reservation/internal/scheduler"
	publisher "github.com/iliyamo/pet-boarding-reservation/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and calendar cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	users := repository.NewUserRepo(db)
	pets := repository.NewPetRepo(db)
	tokens := repository.NewTokenRepo(db)
	reservations := repository.NewReservationRepo(db)
	days := repository.NewBoardingDayRepo(db)
	store := &repository.BookingStore{Pets: pets, Reservations: reservations}

	events := publisher.New(cfg.Broker.URL, cfg.Broker.Queue)
	svc := booking.NewService(store, events, booking.RealClock{}, booking.Config{
		MaxPetsPerDay:    cfg.Booking.MaxPetsPerDay,
		NightlyRateCents: cfg.Booking.NightlyRateCents,
		HorizonMonths:    cfg.Booking.HorizonMonths,
	})

	var invalidate handler.Invalidator
	if rdb != nil && cacheCfg.Enabled {
		invalidate = func(ctx context.Context) error {
			return middleware.InvalidateCache(ctx, cacheCfg, rdb)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	rl := config.LoadRateLimitConfig()
	e.Use(middleware.NewTokenBucket(rl, rdb))

	resH := handler.NewReservationHandler(svc, reservations, events, invalidate)
	router.RegisterRoutes(e, handler.Ready(db))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, resH, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterCustomer(e, handler.NewPetHandler(pets), resH, cfg.JWTSecret, middleware.NewTokenBucket(rl.Writes(), rdb))
	router.RegisterAdmin(e, handler.NewAdminHandler(users, reservations, days, events, invalidate), cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if events.Enabled() {
		consumer := &queue.Consumer{URL: cfg.Broker.URL, Queue: cfg.Broker.Queue, LogPath: cfg.Broker.EventLog}
		if m := notify.NewMailer(cfg.Mail, users); m != nil {
			consumer.Notifier = m
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("consumer stopped: %v", err)
			}
		}()
	}

	maintenance := &scheduler.Maintenance{
		Counters: days,
		Orphans:  reservations,
		Tokens:   tokens,
		Clock:    booking.RealClock{},
		Timeout:  cfg.Scheduler.JobTimeout,
	}
	// Counters must cover every stored stay before the first submission.
	if _, err := maintenance.Seed(ctx); err != nil {
		log.Fatalf("seed day counters: %v", err)
	}
	if cfg.Scheduler.Enabled {
		s, err := scheduler.Start(cfg.Scheduler, maintenance)
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		defer func() { _ = s.Shutdown() }()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
