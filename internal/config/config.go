package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig controls the UI side: where sessions send their searches.
type SearchConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	DefaultCountry string        `mapstructure:"default_country"`
	LocationsFile  string        `mapstructure:"locations_file"`
}

// UpstreamConfig controls the /search proxy.
type UpstreamConfig struct {
	Provider   string        `mapstructure:"provider"` // "serpapi", "scrape" or "auto"
	SerpAPIURL string        `mapstructure:"serpapi_url"`
	SerpAPIKey string        `mapstructure:"serpapi_key"`
	ScrapeURL  string        `mapstructure:"scrape_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	RedisURL   string `mapstructure:"redis_url"`
	RedisDB    int    `mapstructure:"redis_db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// envBindings keeps the flat variable names used in .env files.
var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.environment":     "ENVIRONMENT",
	"server.allowed_origins": "ALLOWED_ORIGINS",
	"search.endpoint":        "SEARCH_ENDPOINT",
	"search.timeout":         "SEARCH_TIMEOUT",
	"search.default_country": "DEFAULT_COUNTRY",
	"search.locations_file":  "LOCATIONS_FILE",
	"upstream.provider":      "UPSTREAM_PROVIDER",
	"upstream.serpapi_url":   "SERPAPI_URL",
	"upstream.serpapi_key":   "SERPAPI_API_KEY",
	"upstream.scrape_url":    "SCRAPE_URL",
	"upstream.timeout":       "UPSTREAM_TIMEOUT",
	"cache.enabled":          "CACHE_ENABLED",
	"cache.redis_url":        "REDIS_URL",
	"cache.redis_db":         "REDIS_DB",
	"cache.ttl_seconds":      "CACHE_TTL",
	"ratelimit.per_second":   "RATE_LIMIT_PER_SECOND",
	"ratelimit.burst":        "RATE_LIMIT_BURST",
	"session.ttl":            "SESSION_TTL",
	"log.level":              "LOG_LEVEL",
	"log.file":               "LOG_FILE",
}

// Load reads .env (if present), an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("search.endpoint", "http://localhost:8085/search")
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.default_country", "us")
	v.SetDefault("search.locations_file", "")

	v.SetDefault("upstream.provider", "auto")
	v.SetDefault("upstream.serpapi_url", "https://serpapi.com/search")
	v.SetDefault("upstream.serpapi_key", "")
	v.SetDefault("upstream.scrape_url", "https://www.google.com/search")
	v.SetDefault("upstream.timeout", "30s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_seconds", 600) // 10 minutes

	v.SetDefault("ratelimit.per_second", 10)
	v.SetDefault("ratelimit.burst", 20)

	v.SetDefault("session.ttl", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// splitOrigins accepts both list values and a single comma-separated
// environment string.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Search),
		validation.Field(&c.Upstream),
		validation.Field(&c.Cache),
		validation.Field(&c.RateLimit),
		validation.Field(&c.Session),
		validation.Field(&c.Log),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required),
		validation.Field(&s.Environment, validation.In("development", "test", "production")),
	)
}

func (s SearchConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Endpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&s.Timeout, validation.Min(time.Second)),
	)
}

func (u UpstreamConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Provider, validation.In("serpapi", "scrape", "auto")),
		validation.Field(&u.SerpAPIURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&u.ScrapeURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&u.SerpAPIKey, validation.When(u.Provider == "serpapi",
			validation.Required.Error("is required when provider is serpapi (set SERPAPI_API_KEY)"))),
		validation.Field(&u.Timeout, validation.Min(time.Second)),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RedisURL, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.RedisDB, validation.Min(0)),
		validation.Field(&c.TTLSeconds, validation.Min(1)),
	)
}

func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PerSecond, validation.Min(0.1)),
		validation.Field(&r.Burst, validation.Min(1)),
	)
}

func (s SessionConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.TTL, validation.Min(time.Minute)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
