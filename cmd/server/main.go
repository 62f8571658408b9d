package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/app"
	"rideshare/internal/config"
	"rideshare/internal/dispatch"
	"rideshare/internal/domain"
	"rideshare/internal/handler"
	"rideshare/internal/pricing"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository"
	"rideshare/internal/repository/postgres"
	"rideshare/internal/service"
	"rideshare/internal/ws"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Long-lived context for the open-trip feed.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Wire dependencies.
	server := wireServer(appCtx, db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	tripRepo := postgres.NewTripRepository(db)
	walletRepo := postgres.NewWalletRepository(db)

	// Pricing engine from config.
	engine := pricing.NewEngine(pricing.Policy{
		BaseRatePerKm:   cfg.Pricing.BaseRatePerKm,
		MinimumFare:     domain.MoneyFromFloat(cfg.Pricing.MinimumFare),
		CommissionRate:  cfg.Pricing.CommissionRate,
		InsuranceRate:   cfg.Pricing.InsuranceRate,
		PeakMultiplier:  cfg.Pricing.PeakMultiplier,
		NightMultiplier: cfg.Pricing.NightMultiplier,
		MaxSurge:        cfg.Pricing.MaxSurge,
	})

	// Initialize services.
	clock := service.SystemClock()
	notificationService := service.NewNotificationService()
	walletService := service.NewWalletService(walletRepo, service.NewMockProvider(), notificationService, clock)
	tripService := service.NewTripService(tripRepo, walletService, engine, notificationService, clock, lockStore)

	surgeCfg := service.DefaultSurgeConfig()
	surgeCfg.RadiusKm = cfg.Pricing.SurgeRadiusKm
	surgeService := service.NewSurgeService(locationStore, tripRepo, engine, surgeCfg)

	pricingService := service.NewPricingService(engine, surgeService, clock)
	driverService := service.NewDriverService(locationStore, tripService)
	receiptService := service.NewReceiptService(tripRepo, engine, clock)

	stream := repository.NewOpenTripPoller(tripRepo, cfg.Dispatch.PollInterval)
	dispatchService := service.NewDispatchService(tripRepo, stream, dispatch.NewSearcher(engine), cacheStore)

	// Open-trip feed.
	hub := ws.NewHub()
	go hub.Run(ctx, dispatchService.Watch(ctx))

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(tripService, receiptService)
	dispatchHandler := handler.NewDispatchHandler(dispatchService)
	driverHandler := handler.NewDriverHandler(driverService)
	walletHandler := handler.NewWalletHandler(walletService)
	pricingHandler := handler.NewPricingHandler(pricingService, surgeService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:     tripHandler,
		DispatchHandler: dispatchHandler,
		DriverHandler:   driverHandler,
		WalletHandler:   walletHandler,
		PricingHandler:  pricingHandler,
		Hub:             hub,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
