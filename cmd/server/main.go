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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atoz-search/internal/api"
	"atoz-search/internal/catalog"
	"atoz-search/internal/config"
	"atoz-search/internal/logging"
	"atoz-search/internal/services"
	"atoz-search/internal/ui"
	"atoz-search/internal/upstream"
	"atoz-search/pkg/cache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Server.Environment == "development",
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cat := catalog.Load(cfg.Search.LocationsFile, logger)
	logger.Info("location catalog loaded", zap.Int("countries", cat.Len()))

	redisCache := connectCache(cfg, logger)
	if redisCache != nil {
		defer func() { _ = redisCache.Close() }()
	}

	provider := newProvider(cfg, logger)
	shopping := newShoppingService(provider, redisCache, logger)

	searchClient := services.NewSearchClient(cfg.Search.Timeout, logger)
	controllerCfg := services.ControllerConfig{
		Endpoint:       cfg.Search.Endpoint,
		DefaultCountry: cfg.Search.DefaultCountry,
	}
	sessions := ui.NewSessionStore(func() *services.Controller {
		return services.NewController(controllerCfg, cat, searchClient, logger)
	}, cfg.Session.TTL, logger)
	defer sessions.Close()

	uiHandler, err := ui.NewHandler(sessions, services.InitialView(controllerCfg, cat), logger)
	if err != nil {
		logger.Fatal("failed to build ui", zap.Error(err))
	}

	router := api.NewRouter(api.Dependencies{
		Shopping: shopping,
		Cache:    redisCache,
		Catalog:  cat,
		Limiter:  api.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		Logger:   logger,
	})
	uiHandler.Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.WithCORS(router, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("provider", shopping.ProviderName()),
			zap.String("search_endpoint", cfg.Search.Endpoint))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

// connectCache returns nil when caching is off or Redis cannot be reached;
// the proxy then serves every request from upstream.
func connectCache(cfg *config.Config, logger *zap.Logger) *cache.RedisCache {
	if !cfg.Cache.Enabled {
		logger.Info("result cache disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedisCache(ctx, cache.Options{
		URL: cfg.Cache.RedisURL,
		DB:  cfg.Cache.RedisDB,
		TTL: cfg.Cache.TTL(),
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		return nil
	}
	return redisCache
}

func newProvider(cfg *config.Config, logger *zap.Logger) upstream.Provider {
	switch upstream.ResolveProvider(cfg.Upstream.Provider, cfg.Upstream.SerpAPIKey) {
	case upstream.ProviderSerpAPI:
		return upstream.NewSerpAPIProvider(cfg.Upstream.SerpAPIURL, cfg.Upstream.SerpAPIKey, cfg.Upstream.Timeout, logger)
	default:
		return upstream.NewShoppingScraper(cfg.Upstream.ScrapeURL, cfg.Upstream.Timeout, logger)
	}
}

// newShoppingService avoids handing the service a typed-nil cache.
func newShoppingService(provider upstream.Provider, redisCache *cache.RedisCache, logger *zap.Logger) *services.ShoppingService {
	if redisCache == nil {
		return services.NewShoppingService(provider, nil, logger)
	}
	return services.NewShoppingService(provider, redisCache, logger)
}
