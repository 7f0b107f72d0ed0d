package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atoz-search/internal/catalog"
	"atoz-search/internal/models"
	"atoz-search/internal/services"
	"atoz-search/pkg/cache"
)

const (
	serviceName    = "atoz-search"
	serviceVersion = "1.0.0"
)

// ShoppingSearcher is what the /search proxy needs from the shopping service.
type ShoppingSearcher interface {
	Search(ctx context.Context, q models.ShoppingQuery) (*models.ShoppingResponse, error)
	ProviderName() string
}

type Handler struct {
	shopping ShoppingSearcher
	cache    *cache.RedisCache
	catalog  *catalog.Catalog
	limiter  *RateLimiter
	logger   *zap.Logger
}

// Search proxies a shopping query upstream. q must be present but may be
// empty.
func (h *Handler) Search(c *gin.Context) {
	q, ok := c.GetQuery("q")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "validation_error",
			Code:    http.StatusUnprocessableEntity,
			Message: "query parameter 'q' is required",
		})
		return
	}

	query := models.ShoppingQuery{
		Query:       q,
		Location:    c.DefaultQuery("location", services.DefaultLocation),
		Device:      c.DefaultQuery("device", services.DefaultDevice),
		CountryCode: c.DefaultQuery("country_code", services.DefaultCountryCode),
	}

	resp, err := h.shopping.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuery) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   "validation_error",
				Code:    http.StatusUnprocessableEntity,
				Message: err.Error(),
			})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(c *gin.Context) {
	health := gin.H{
		"status":   "healthy",
		"service":  serviceName,
		"version":  serviceVersion,
		"provider": h.shopping.ProviderName(),
	}

	if h.cache.IsAvailable() {
		health["cache"] = "redis connected"
	} else {
		health["cache"] = "redis unavailable"
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) Locations(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Options())
}

func (h *Handler) RateLimitStatus(c *gin.Context) {
	ip := c.ClientIP()
	limiter := h.limiter.Get(ip)

	var nextToken time.Time
	if limiter.Limit() > 0 {
		nextToken = time.Now().Add(time.Duration(float64(time.Second) / float64(limiter.Limit())))
	}

	c.JSON(http.StatusOK, gin.H{
		"ip":               ip,
		"limit_per_second": float64(limiter.Limit()),
		"burst_capacity":   limiter.Burst(),
		"tokens_available": limiter.Tokens(),
		"next_token_at":    nextToken,
	})
}

func (h *Handler) CacheStats(c *gin.Context) {
	if !h.cache.IsAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not available"})
		return
	}
	c.JSON(http.StatusOK, h.cache.GetStats(c.Request.Context()))
}

func (h *Handler) CacheDebug(c *gin.Context) {
	if !h.cache.IsAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not available"})
		return
	}

	ctx := c.Request.Context()
	keys, err := h.cache.GetAllKeys(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "cache_scan_failed",
			Code:    http.StatusInternalServerError,
			Details: err.Error(),
		})
		return
	}

	details := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		ttl := h.cache.GetKeyTTL(ctx, key)
		details = append(details, gin.H{
			"key":         key,
			"ttl_seconds": int(ttl.Seconds()),
			"expires_in":  ttl.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_keys": len(keys),
		"cache_keys": details,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) CacheFlush(c *gin.Context) {
	if !h.cache.IsAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not available"})
		return
	}

	removed, err := h.cache.FlushCache(c.Request.Context())
	if err != nil {
		h.logger.Error("cache flush failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to flush cache",
			Code:    http.StatusInternalServerError,
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "cache flushed successfully",
		"removed":   removed,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
