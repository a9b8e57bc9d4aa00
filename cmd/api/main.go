package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/grupoblue/lead-insights/internal/api/router"
	appconfig "github.com/grupoblue/lead-insights/internal/config"
	"github.com/grupoblue/lead-insights/internal/http/handlers"
	"github.com/grupoblue/lead-insights/internal/insights"
	"github.com/grupoblue/lead-insights/internal/journey"
	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/internal/observability/metrics"
	"github.com/grupoblue/lead-insights/internal/pipedrive"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

func main() {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-insights API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.MauticBaseURL == "" {
		logger.Error("MAUTIC_BASE_URL is required")
		os.Exit(1)
	}
	mauticClient := mautic.NewClient(
		cfg.MauticBaseURL,
		cfg.MauticUsername,
		cfg.MauticPassword,
		logger,
		mautic.WithTimeout(cfg.MauticTimeout),
		mautic.WithPageSize(cfg.MauticPageSize),
	)

	var crmSource journey.CRMSource
	if cfg.PipedriveAPIToken != "" {
		crmSource = pipedrive.NewClient(
			cfg.PipedriveBaseURL,
			cfg.PipedriveAPIToken,
			logger,
			pipedrive.WithTimeout(cfg.PipedriveTimeout),
		)
	} else {
		logger.Warn("PIPEDRIVE_API_TOKEN not set, journeys will have no CRM data")
	}

	var (
		history       journey.History
		historySource handlers.HistorySource
		lookupStore   *mautic.LookupStore
		lookups       journey.LookupProvider
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		historyRepo := journey.NewHistoryRepo(pool, logger, nil)
		history = historyRepo
		historySource = historyRepo
		lookupStore = mautic.NewLookupStore(pool, mauticClient, logger)
		lookups = lookupStore
	} else {
		logger.Warn("DATABASE_URL not set, search history and lookup sync disabled")
	}

	var cache journey.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		cache = journey.NewCacheStore(redisClient, cfg.JourneyCacheTTL, nil)
	} else {
		logger.Warn("REDIS_ADDR not set, journey caching disabled")
	}

	registry := prometheus.NewRegistry()
	journeyMetrics := metrics.NewJourneyMetrics(registry)

	service := journey.NewService(
		mauticClient,
		crmSource,
		cache,
		history,
		lookups,
		logger,
		journey.WithMetrics(journeyMetrics),
	)

	var insightsHandler *handlers.InsightsHandler
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := insights.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = geminiClient.Close() }()
		analyzer := insights.NewAnalyzer(geminiClient, logger)
		insightsHandler = handlers.NewInsightsHandler(service, analyzer, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, journey analysis disabled")
		insightsHandler = handlers.NewInsightsHandler(service, nil, logger)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		JourneyHandler:     handlers.NewJourneyHandler(service, historySource, logger),
		InsightsHandler:    insightsHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
		AnalysisRateLimit:  0.5,
		AnalysisBurst:      3,
	}
	if lookupStore != nil {
		routerCfg.AdminLookups = handlers.NewAdminLookupsHandler(lookupStore, logger)
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
