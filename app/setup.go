package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/pyq-analyzer/api"
	"github.com/sahilchouksey/pyq-analyzer/config"
	"github.com/sahilchouksey/pyq-analyzer/database"
	"github.com/sahilchouksey/pyq-analyzer/handlers"
	"github.com/sahilchouksey/pyq-analyzer/router"
	"github.com/sahilchouksey/pyq-analyzer/services"
	"github.com/sahilchouksey/pyq-analyzer/services/cron"
	"github.com/sahilchouksey/pyq-analyzer/services/gemini"
	"github.com/sahilchouksey/pyq-analyzer/services/storage"
	"github.com/sahilchouksey/pyq-analyzer/services/youtube"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"github.com/sahilchouksey/pyq-analyzer/utils/cache"
	"github.com/sahilchouksey/pyq-analyzer/utils/middleware"
)

const shutdownTimeout = 30 * time.Second

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := utils.NewLogger(getEnv.GO_ENV)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize GORM database connection
	store, err := database.StartGORM(getEnv, logger)
	if err != nil {
		logger.Error("check whether PostgreSQL is running", "host", getEnv.DB_HOST, "port", getEnv.DB_PORT)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize database tables: %w", err)
	}

	// AI client is required; video search, cache and archive are optional
	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:            getEnv.GEMINI_API_KEY,
		Model:             getEnv.GEMINI_MODEL,
		RequestsPerMinute: getEnv.AI_REQUESTS_PER_MINUTE,
		Temperature:       getEnv.GEMINI_TEMPERATURE,
	})
	if err != nil {
		return err
	}
	defer geminiClient.Close()
	logger.Info("gemini client ready", "model", geminiClient.Model(), "requests_per_minute", getEnv.AI_REQUESTS_PER_MINUTE)

	var searcher services.VideoSearcher
	if getEnv.YOUTUBE_API_KEY != "" {
		youtubeClient, err := youtube.NewClient(ctx, getEnv.YOUTUBE_API_KEY)
		if err != nil {
			return err
		}
		searcher = youtubeClient
	} else {
		logger.Warn("YOUTUBE_API_KEY not set, video resources disabled")
	}

	var analysisOpts []services.AnalysisOption
	var healthCache handlers.Pinger
	if getEnv.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			logger.Warn("failed to connect to Redis, analysis cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			healthCache = redisCache
			analysisOpts = append(analysisOpts, services.WithAnalysisCache(
				services.NewRedisAnalysisCache(redisCache, services.DefaultAnalysisCacheTTL, logger),
			))
		}
	}

	var archiveCleaner cron.BatchArchiveCleaner
	if getEnv.SpacesEnabled() {
		archive, err := storage.NewPaperArchive(storage.ArchiveConfig{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
		})
		if err != nil {
			logger.Warn("failed to initialize paper archive", "error", err)
		} else {
			archiveCleaner = archive
			analysisOpts = append(analysisOpts, services.WithPaperArchive(archive))
		}
	}

	analysisService := services.NewAnalysisService(store.GetDB(), geminiClient, searcher, logger, analysisOpts...)

	// Initialize Cron Manager (only if enabled via environment variable)
	if getEnv.CRON_ENABLED {
		var refresher cron.ResourceRefresher
		if searcher != nil {
			refresher = analysisService
		}
		cronManager := cron.NewCronManager(store.GetDB(), refresher, archiveCleaner, cron.DefaultConfig(), logger)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			logger.Warn("failed to start cron jobs", "error", err)
		} else {
			defer cronManager.Stop()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), logger)
	app := server.GetEngine()

	security := middleware.SecurityConfig{
		AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
		AnalyzeRateLimit:  10,
	}
	middleware.SetupSecurity(app, security)

	router.SetupRoutes(app, router.Dependencies{
		Store:    store,
		Analysis: analysisService,
		Cache:    healthCache,
		Security: security,
		Logger:   logger,
	})

	// Shut down gracefully on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	return server.Run()
}
