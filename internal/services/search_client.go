package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of a search response is read.
const maxResponseBytes = 8 << 20

// RawResponse is an unparsed reply from the search endpoint.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Searcher performs the outbound call for a built request.
type Searcher interface {
	Do(ctx context.Context, req *SearchRequest) (*RawResponse, error)
}

// SearchClient is the HTTP Searcher used by UI sessions.
type SearchClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

func NewSearchClient(timeout time.Duration, logger *zap.Logger) *SearchClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SearchClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:      logger.Named("search-client"),
	}
}

func (c *SearchClient) Do(ctx context.Context, req *SearchRequest) (*RawResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "atoz-search/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("search request failed", zap.String("url", req.URL), zap.Error(err))
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("search response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("latency", time.Since(start)))

	return &RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
