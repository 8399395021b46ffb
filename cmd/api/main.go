package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/paytraq_sync/internal/config"
	"github.com/GTDGit/paytraq_sync/internal/handler"
	"github.com/GTDGit/paytraq_sync/internal/lock"
	"github.com/GTDGit/paytraq_sync/internal/middleware"
	"github.com/GTDGit/paytraq_sync/internal/service"
	"github.com/GTDGit/paytraq_sync/pkg/gsheets"
	"github.com/GTDGit/paytraq_sync/pkg/paytraq"
)

// main is the application entrypoint for the PayTraq → Google Sheets sync service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting paytraq sheets sync")

	// 3. Resolve the civil time zone for day windows and log timestamps
	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		log.Error().Err(err).Str("tz", cfg.Sync.Timezone).Msg("timezone load failed")
		os.Exit(1)
	}

	// 4. Initialize PayTraq client
	paytraqClient := paytraq.NewClient(paytraq.Config{
		BaseURL:   cfg.PayTraq.BaseURL,
		APIKey:    cfg.PayTraq.APIKey,
		APIToken:  cfg.PayTraq.APIToken,
		PageDelay: cfg.Sync.PageDelay,
		MaxPages:  cfg.Sync.MaxPages,
	})
	if !paytraqClient.HasCredentials() {
		log.Warn().Msg("PayTraq credentials missing - data endpoints will answer 400")
	}

	// 5. Initialize Google Sheets client (optional: only sheet endpoints need it)
	var sheetsClient *gsheets.Client
	if cfg.Google.ServiceAccountJSON != "" {
		sheetsClient, err = gsheets.NewClient(context.Background(), []byte(cfg.Google.ServiceAccountJSON))
		if err != nil {
			log.Error().Err(err).Msg("sheets client initialization failed")
			os.Exit(1)
		}
		log.Info().Msg("sheets client ready")
	} else {
		log.Warn().Msg("GOOGLE_SERVICE_ACCOUNT_JSON missing - sheet endpoints will answer 400")
	}

	// 6. Initialize optional advisory sync lock
	var syncLock *lock.SyncLock
	if cfg.Redis.Host != "" {
		syncLock, err = lock.New(&cfg.Redis, cfg.Sync.LockTTL)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer syncLock.Close()
		log.Info().Msg("advisory sync lock enabled")
	}

	// 7. Initialize services
	productSvc := service.NewProductService(paytraqClient)
	syncSvc := service.NewSyncService(loc)

	// 8. Initialize handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(),
		Product: handler.NewProductHandler(productSvc, cfg.PayTraq, loc),
		Sheet:   handler.NewSheetHandler(productSvc, syncSvc, sheetsClient, syncLock, cfg, loc),
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 10. Start HTTP server
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

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Product *handler.ProductHandler
	Sheet   *handler.SheetHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/", handlers.Health.GetHealth)
	router.GET("/products-updated-today", handlers.Product.GetUpdatedToday)
	router.GET("/export-all-products-to-sheet", handlers.Sheet.ExportAll)
	router.GET("/sync-today-products-to-sheet", handlers.Sheet.SyncToday)
	router.GET("/sync-updated-products-to-sheet", handlers.Sheet.SyncUpdated)
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
