package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"atoz-search/internal/models"
	"atoz-search/internal/upstream"
)

const (
	DefaultLocation    = "Austin, Texas, United States"
	DefaultDevice      = "desktop"
	DefaultCountryCode = "us"
)

var validDevices = []interface{}{"desktop", "tablet", "mobile"}

// ResultCache is the subset of pkg/cache the proxy needs.
type ResultCache interface {
	IsAvailable() bool
	GenerateSearchKey(q models.ShoppingQuery) string
	GetShoppingResults(ctx context.Context, key string) (json.RawMessage, bool, error)
	SetShoppingResults(ctx context.Context, key string, results json.RawMessage) error
}

// ShoppingService backs the /search proxy: validate, consult the cache,
// call the upstream provider, store the result.
type ShoppingService struct {
	provider upstream.Provider
	cache    ResultCache
	logger   *zap.Logger
}

func NewShoppingService(provider upstream.Provider, cache ResultCache, logger *zap.Logger) *ShoppingService {
	return &ShoppingService{
		provider: provider,
		cache:    cache,
		logger:   logger.Named("shopping"),
	}
}

func (s *ShoppingService) ProviderName() string {
	return s.provider.Name()
}

func (s *ShoppingService) Search(ctx context.Context, q models.ShoppingQuery) (*models.ShoppingResponse, error) {
	startTime := time.Now()

	if err := validateShoppingQuery(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	cacheKey := ""
	if s.cacheAvailable() {
		cacheKey = s.cache.GenerateSearchKey(q)
		cached, ok, err := s.cache.GetShoppingResults(ctx, cacheKey)
		switch {
		case err != nil:
			s.logger.Warn("cache read failed", zap.String("key", cacheKey), zap.Error(err))
		case ok:
			s.logger.Info("cache hit",
				zap.String("key", cacheKey),
				zap.Duration("duration", time.Since(startTime)))
			return &models.ShoppingResponse{ShoppingResults: cached}, nil
		default:
			s.logger.Debug("cache miss", zap.String("key", cacheKey))
		}
	}

	results, err := s.provider.Search(ctx, q)
	if err != nil {
		s.logger.Warn("upstream search failed",
			zap.String("provider", s.provider.Name()),
			zap.String("kind", upstream.Kind(err)),
			zap.Error(err))
		return nil, err
	}

	if cacheKey != "" {
		if err := s.cache.SetShoppingResults(ctx, cacheKey, results); err != nil {
			s.logger.Warn("failed to cache results", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	s.logger.Info("shopping search served",
		zap.String("provider", s.provider.Name()),
		zap.String("query", q.Query),
		zap.Duration("duration", time.Since(startTime)))

	return &models.ShoppingResponse{ShoppingResults: results}, nil
}

func (s *ShoppingService) cacheAvailable() bool {
	return s.cache != nil && s.cache.IsAvailable()
}

func validateShoppingQuery(q models.ShoppingQuery) error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Query, validation.Length(0, 500)),
		validation.Field(&q.Location, validation.Length(0, 200)),
		validation.Field(&q.Device, validation.Required, validation.In(validDevices...)),
		validation.Field(&q.CountryCode, validation.Length(0, 10)),
	)
}
