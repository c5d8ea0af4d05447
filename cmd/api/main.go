package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/cache"
	"github.com/shelfline/marketsync/internal/config"
	"github.com/shelfline/marketsync/internal/database"
	"github.com/shelfline/marketsync/internal/handler"
	"github.com/shelfline/marketsync/internal/middleware"
	"github.com/shelfline/marketsync/internal/repository"
	"github.com/shelfline/marketsync/internal/service"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/internal/worker"
	"github.com/shelfline/marketsync/pkg/ebay"
)

// main is the application entrypoint for the marketplace sync engine.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting marketsync api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize notification dedupe cache
	notificationCache := cache.NewNotificationCache(redisClient)

	// 4. Initialize marketplace client
	ebayClient := ebay.NewClient(ebay.Config{
		ClientID:     cfg.Ebay.ClientID,
		ClientSecret: cfg.Ebay.ClientSecret,
		RedirectURI:  cfg.Ebay.RedirectURI,
		Sandbox:      cfg.Ebay.Sandbox,
		CallTimeout:  cfg.Ebay.CallTimeout,
		RateLimit:    cfg.Ebay.RateLimit,
		RateBurst:    cfg.Ebay.RateBurst,
	})

	// 4a. Token cipher for credentials at rest
	cipher, err := utils.NewTokenCipher(cfg.CredentialKey)
	if err != nil {
		log.Error().Err(err).Msg("invalid credential encryption key")
		fmt.Fprintf(os.Stderr, "invalid credential encryption key: %v\n", err)
		os.Exit(1)
	}

	// 5. Initialize repositories
	tenantRepo := repository.NewTenantRepository(db)
	productRepo := repository.NewProductRepository(db)
	credentialRepo := repository.NewCredentialRepository(db, cipher)
	syncLogRepo := repository.NewSyncLogRepository(db)

	// 6. Initialize services
	authSvc := service.NewAuthService(tenantRepo)
	alertSvc := service.NewAlertService(syncLogRepo)
	tokenMgr := service.NewTokenManager(credentialRepo, ebayClient)
	publishSvc := service.NewPublishService(productRepo, tenantRepo, tokenMgr, ebayClient, alertSvc, cfg.Worker.PublishConcurrency)
	reconcileSvc := service.NewReconcileService(productRepo, tokenMgr, ebayClient, alertSvc)
	orderSyncSvc := service.NewOrderSyncService(productRepo, credentialRepo, tokenMgr, ebayClient, alertSvc, cfg.Worker.OrderSyncWindow)
	webhookSvc := service.NewWebhookService(tenantRepo, productRepo, notificationCache, alertSvc)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisClient),
		Listing:  handler.NewListingHandler(publishSvc, reconcileSvc, orderSyncSvc),
		Webhook:  handler.NewWebhookHandler(webhookSvc, cfg.Ebay.VerificationToken, cfg.Ebay.WebhookEndpoint),
		Connect:  handler.NewConnectHandler(ebayClient, tokenMgr, redisClient),
		Settings: handler.NewSettingsHandler(tenantRepo, alertSvc),
	}

	// 8. Initialize middleware
	authMw := middleware.NewAuthMiddleware(authSvc)
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, authMw, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewOrderSyncWorker(orderSyncSvc, cfg.Worker.OrderSyncInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Listing  *handler.ListingHandler
	Webhook  *handler.WebhookHandler
	Connect  *handler.ConnectHandler
	Settings *handler.SettingsHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, authMiddleware *middleware.AuthMiddleware, jwtMiddleware *middleware.JWTMiddleware) {
	// Marketplace webhook endpoint (challenge handshake + deliveries)
	router.GET("/webhook/ebay", handlers.Webhook.HandleChallenge)
	router.POST("/webhook/ebay", handlers.Webhook.HandleNotification)

	// OAuth redirect target; the state parameter carries tenant identity
	router.GET("/v1/marketplace/callback", handlers.Connect.Callback)

	router.GET("/v1/health", handlers.Health.GetHealth)

	// Integration routes (protected with tenant API key)
	v1 := router.Group("/v1")
	v1.Use(authMiddleware.Handle())
	{
		v1.POST("/listings/batch", handlers.Listing.BatchAction)
		v1.POST("/listings/reconcile", handlers.Listing.Reconcile)
		v1.POST("/orders/sync", handlers.Listing.SyncOrders)
	}

	// Seller console routes (protected with console JWT)
	console := router.Group("/v1")
	console.Use(jwtMiddleware.Handle())
	{
		console.GET("/marketplace/connect", handlers.Connect.Connect)
		console.GET("/marketplace/status", handlers.Connect.Status)
		console.DELETE("/marketplace", handlers.Connect.Disconnect)
		console.GET("/settings", handlers.Settings.GetSettings)
		console.PUT("/settings", handlers.Settings.UpdateSettings)
		console.GET("/alerts", handlers.Settings.ListAlerts)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
