package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atoz-search/internal/catalog"
	"atoz-search/pkg/cache"
)

type Dependencies struct {
	Shopping ShoppingSearcher
	Cache    *cache.RedisCache // nil when caching is disabled or Redis is down
	Catalog  *catalog.Catalog
	Limiter  *RateLimiter
	Logger   *zap.Logger
}

// NewRouter builds the engine with middleware and the proxy and ops routes.
// UI routes are registered on the returned engine by the caller.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger.Named("http")
	if deps.Catalog == nil {
		deps.Catalog = catalog.New(nil)
	}

	h := &Handler{
		shopping: deps.Shopping,
		cache:    deps.Cache,
		catalog:  deps.Catalog,
		limiter:  deps.Limiter,
		logger:   logger,
	}

	r := gin.New()
	r.Use(RequestID())
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	if deps.Limiter != nil {
		r.Use(deps.Limiter.Middleware())
	}

	r.GET("/health", h.Health)
	r.GET("/locations", h.Locations)
	r.GET("/search", h.Search)

	if deps.Limiter != nil {
		r.GET("/rate-limit/status", h.RateLimitStatus)
	}

	cacheGroup := r.Group("/cache")
	{
		cacheGroup.GET("/stats", h.CacheStats)
		cacheGroup.GET("/debug", h.CacheDebug)
		cacheGroup.DELETE("/flush", h.CacheFlush)
	}

	return r
}
