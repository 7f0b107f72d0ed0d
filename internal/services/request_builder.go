package services

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"atoz-search/internal/catalog"
)

// SearchRequest is a fully built outbound call to the search endpoint.
type SearchRequest struct {
	Method string
	URL    string
	Params url.Values
}

// BuildSearchRequest resolves the country name from the catalog (empty when
// the code is unknown) and appends q, location and country_code to the
// endpoint's query. It performs no I/O.
func BuildSearchRequest(endpoint, query, countryCode string, cat *catalog.Catalog) (*SearchRequest, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid search endpoint %q: scheme and host required", endpoint)
	}

	locationName := ""
	if cat != nil {
		if name, ok := cat.Lookup(countryCode); ok {
			locationName = name
		}
	}

	// Parameters already on the endpoint are kept; q, location and
	// country_code follow them in that order.
	params := u.Query()
	fields := [][2]string{{"q", query}, {"location", locationName}, {"country_code", countryCode}}
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		params.Del(f[0])
	}
	if existing := params.Encode(); existing != "" {
		parts = append(parts, existing)
	}
	for _, f := range fields {
		params.Set(f[0], f[1])
		parts = append(parts, url.QueryEscape(f[0])+"="+url.QueryEscape(f[1]))
	}
	u.RawQuery = strings.Join(parts, "&")

	return &SearchRequest{
		Method: http.MethodGet,
		URL:    u.String(),
		Params: params,
	}, nil
}
