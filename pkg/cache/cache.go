package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"atoz-search/internal/models"
)

const keyPrefix = "shopping:"

var ErrUnavailable = errors.New("redis client not available")

type Options struct {
	URL string
	DB  int
	TTL time.Duration
}

// RedisCache stores raw shopping_results payloads per query. A nil
// *RedisCache is valid and behaves as an unavailable cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(ctx context.Context, opts Options, logger *zap.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opt.DB = opts.DB

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	logger.Info("redis connected",
		zap.Int("db", opts.DB),
		zap.Duration("ttl", ttl))

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("cache"),
	}, nil
}

// GetShoppingResults returns (nil, false, nil) on a cache miss.
func (r *RedisCache) GetShoppingResults(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if !r.IsAvailable() {
		return nil, false, ErrUnavailable
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	if !json.Valid(val) {
		return nil, false, fmt.Errorf("corrupt cache entry for %s", key)
	}
	return json.RawMessage(val), true, nil
}

func (r *RedisCache) SetShoppingResults(ctx context.Context, key string, results json.RawMessage) error {
	if !r.IsAvailable() {
		return ErrUnavailable
	}
	if len(results) == 0 {
		results = json.RawMessage("null")
	}
	return r.client.Set(ctx, key, []byte(results), r.ttl).Err()
}

// GenerateSearchKey builds the cache key for a proxy query. Values are
// lowercased except the query text itself, and every part is query-escaped
// so a separator inside a value cannot shift it into the next part.
func (r *RedisCache) GenerateSearchKey(q models.ShoppingQuery) string {
	return fmt.Sprintf("%s%s:%s:%s:%s",
		keyPrefix,
		url.QueryEscape(q.Query),
		url.QueryEscape(strings.ToLower(q.Location)),
		url.QueryEscape(strings.ToLower(q.CountryCode)),
		url.QueryEscape(strings.ToLower(q.Device)))
}

func (r *RedisCache) Close() error {
	if !r.IsAvailable() {
		return nil
	}
	return r.client.Close()
}

func (r *RedisCache) IsAvailable() bool {
	return r != nil && r.client != nil
}

func (r *RedisCache) GetStats(ctx context.Context) map[string]interface{} {
	if !r.IsAvailable() {
		return map[string]interface{}{
			"status": "unavailable",
		}
	}

	keys, _ := r.GetAllKeys(ctx)
	info := r.client.Info(ctx, "memory").Val()
	return map[string]interface{}{
		"status":      "connected",
		"ttl_seconds": int(r.ttl.Seconds()),
		"keys":        len(keys),
		"memory_info": info,
	}
}

func (r *RedisCache) GetAllKeys(ctx context.Context) ([]string, error) {
	if !r.IsAvailable() {
		return []string{}, ErrUnavailable
	}

	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return []string{}, err
	}
	return keys, nil
}

// FlushCache removes only shopping entries, leaving the rest of the DB.
func (r *RedisCache) FlushCache(ctx context.Context) (int, error) {
	keys, err := r.GetAllKeys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	r.logger.Info("cache flushed", zap.Int("keys", len(keys)))
	return len(keys), nil
}

func (r *RedisCache) GetKeyTTL(ctx context.Context, key string) time.Duration {
	if !r.IsAvailable() {
		return 0
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0
	}
	return ttl
}
