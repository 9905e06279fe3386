package main // Entry point package

import (
	"context" // cancellation for background workers
	"log"     // Logging library
	"os"      // environment access for optional SMTP settings
	"time"    // durations derived from config

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/stagegate/ticketing/internal/booking"    // reservation coordinator and sweeper
	"github.com/stagegate/ticketing/internal/config"     // internal config loader
	"github.com/stagegate/ticketing/internal/database"   // MySQL pool
	"github.com/stagegate/ticketing/internal/handler"    // HTTP handlers
	"github.com/stagegate/ticketing/internal/lock"       // distributed seat locks
	"github.com/stagegate/ticketing/internal/mail"       // verification code delivery
	"github.com/stagegate/ticketing/internal/middleware" // rate limiting
	"github.com/stagegate/ticketing/internal/payment"    // payment gateway client
	"github.com/stagegate/ticketing/internal/queue"      // order.confirmed consumer
	"github.com/stagegate/ticketing/internal/repository" // DB repositories
	"github.com/stagegate/ticketing/internal/router"     // route registration
)

func main() {
	_ = godotenv.Load() // best effort; real deployments use the environment

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // Redis backs locks, rate limits and verification codes
	if rdb == nil {
		log.Fatal("redis unreachable; refusing to start without a lock store")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	seats := repository.NewSeatRepo(db)
	perfs := repository.NewPerformanceRepo(db)
	carts := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)

	// Seat locking and the reservation coordinator.
	locks := lock.NewManager(lock.NewRedisStore(rdb))
	lockTTL := time.Duration(cfg.LockTTLMin) * time.Minute
	coordinator := booking.NewCoordinator(perfs, seats, orders, carts, locks, lockTTL)

	// Verification mail: fall back to log delivery when SMTP is not configured.
	var sender mail.Sender = mail.LogSender{}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		sender = &mail.SMTPSender{
			Host: host,
			Port: os.Getenv("SMTP_PORT"),
			From: os.Getenv("SMTP_FROM"),
			Pass: os.Getenv("SMTP_PASS"),
		}
	}
	verifier := mail.NewVerifier(rdb, sender)

	// Payment gateway: a missing URL selects the accept-all client,
	// which keeps local development free of an external dependency.
	var gateway payment.Gateway = payment.NoopGateway{}
	if cfg.GatewayURL != "" {
		gateway = payment.NewHTTPGateway(cfg.GatewayURL)
	}

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens, verifier)
	catalogH := &handler.CatalogHandler{Venues: venues, Seats: seats, Performances: perfs, Carts: carts, Orders: orders}
	cartH := handler.NewCartHandler(coordinator, carts)
	orderH := handler.NewOrderHandler(orders, carts, seats, venues, perfs, coordinator, gateway)
	adminH := handler.NewAdminHandler(venues, seats, perfs)

	e := echo.New() // Create Echo instance
	e.HideBanner = true

	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogH)
	router.RegisterCustomer(e, cartH, orderH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background workers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SweepEveryMin > 0 {
		sweeper := &booking.Sweeper{
			Carts:    carts,
			Locks:    locks,
			MaxAge:   lockTTL,
			Interval: time.Duration(cfg.SweepEveryMin) * time.Minute,
		}
		go sweeper.Run(ctx)
	}
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
