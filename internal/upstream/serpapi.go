package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"atoz-search/internal/models"
)

const defaultSerpAPIEndpoint = "https://serpapi.com/search"

type SerpAPIProvider struct {
	endpoint    string
	apiKey      string
	client      *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

func NewSerpAPIProvider(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *SerpAPIProvider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultSerpAPIEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SerpAPIProvider{
		endpoint:    endpoint,
		apiKey:      strings.TrimSpace(apiKey),
		client:      &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:      logger.Named("serpapi"),
	}
}

func (p *SerpAPIProvider) Name() string {
	return ProviderSerpAPI
}

func (p *SerpAPIProvider) Search(ctx context.Context, q models.ShoppingQuery) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, newError(ErrorKindConfig, fmt.Errorf("serpapi api key is missing"))
	}

	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, newError(ErrorKindConfig, fmt.Errorf("invalid serpapi endpoint: %w", err))
	}

	params := u.Query()
	params.Set("engine", "google")
	params.Set("q", q.Query)
	params.Set("location", q.Location)
	params.Set("google_domain", "google.com")
	params.Set("gl", q.CountryCode)
	params.Set("hl", "en")
	params.Set("device", q.Device)
	params.Set("api_key", p.apiKey)
	params.Set("tbm", "shop")
	u.RawQuery = params.Encode()

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, newError(ErrorKindRateLimit, fmt.Errorf("rate limiter error: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(ErrorKindUnknown, fmt.Errorf("create serpapi request failed: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "atoz-search/1.0")

	start := time.Now()
	res, err := p.client.Do(req)
	if err != nil {
		// The request URL carries api_key; keep it out of the error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, newError(ErrorKindNetwork, fmt.Errorf("serpapi request failed: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		p.logger.Warn("serpapi returned error status",
			zap.Int("status", res.StatusCode),
			zap.String("query", q.Query))
		return nil, statusError(ProviderSerpAPI, res.StatusCode, string(body))
	}

	var payload struct {
		ShoppingResults json.RawMessage `json:"shopping_results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, newError(ErrorKindDecode, fmt.Errorf("decode serpapi response failed: %w", err))
	}

	p.logger.Info("serpapi search completed",
		zap.String("query", q.Query),
		zap.String("country_code", q.CountryCode),
		zap.Duration("latency", time.Since(start)))

	return payload.ShoppingResults, nil
}
