package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"atoz-search/internal/models"
)

const (
	ProviderSerpAPI = "serpapi"
	ProviderScrape  = "scrape"
	ProviderAuto    = "auto"
)

const (
	ErrorKindConfig      = "config"
	ErrorKindNetwork     = "network"
	ErrorKindRateLimit   = "rate_limit"
	ErrorKindUpstream5xx = "upstream_5xx"
	ErrorKindDecode      = "decode"
	ErrorKindUnknown     = "unknown"
)

// Provider fetches the shopping_results value for a query. The returned
// JSON is passed to clients untouched and may be null.
type Provider interface {
	Name() string
	Search(ctx context.Context, q models.ShoppingQuery) (json.RawMessage, error)
}

type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind string, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Kind reports the error kind of err, or ErrorKindUnknown.
func Kind(err error) string {
	var upstreamErr *Error
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Kind
	}
	return ErrorKindUnknown
}

func statusError(provider string, code int, detail string) error {
	kind := ErrorKindUnknown
	switch {
	case code == http.StatusTooManyRequests:
		kind = ErrorKindRateLimit
	case code >= 500:
		kind = ErrorKindUpstream5xx
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = http.StatusText(code)
	}
	return newError(kind, fmt.Errorf("%s http %d: %s", provider, code, detail))
}

// ResolveProvider picks the provider name to use. An explicit serpapi or
// scrape wins; auto prefers serpapi when an API key is configured.
func ResolveProvider(configured, serpAPIKey string) string {
	switch strings.ToLower(strings.TrimSpace(configured)) {
	case ProviderSerpAPI:
		return ProviderSerpAPI
	case ProviderScrape:
		return ProviderScrape
	}
	if strings.TrimSpace(serpAPIKey) != "" {
		return ProviderSerpAPI
	}
	return ProviderScrape
}
