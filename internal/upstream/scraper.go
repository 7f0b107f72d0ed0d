package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"atoz-search/internal/models"
	"atoz-search/pkg/utils"
)

const defaultScrapeEndpoint = "https://www.google.com/search"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result-card selectors, tried in order until one matches.
var cardSelectors = []string{
	"[data-shopping-result]",
	"div.sh-dgr__content",
	"div.sh-dlr__list-result",
	"div.sh-pr__product-result",
}

var (
	titleSelectors     = []string{"[data-title]", "h3", "h4", ".tAxDx"}
	priceSelectors     = []string{"[data-price]", ".a8Pemb", "span.kHxwFf span", ".HRLxBb"}
	sourceSelectors    = []string{"[data-source]", ".aULzUe", ".IuHnof", ".E5ocAb"}
	snippetSelectors   = []string{"[data-snippet]", ".F7Kwhf", ".hBUZL"}
	ratingSelectors    = []string{"[data-rating]", ".Rsc7Yb", "span.yi40Hd"}
	reviewSelectors    = []string{"[data-reviews]", ".NzUzee span", ".RDApEe"}
	thumbnailSelectors = []string{"img[data-thumbnail]", "img"}
	linkSelectors      = []string{"a[data-link]", "a[href]"}
)

// ShoppingScraper reads a shopping results HTML page and maps each product
// card to the shopping_results item shape.
type ShoppingScraper struct {
	endpoint  string
	collector *colly.Collector
	logger    *zap.Logger
}

func NewShoppingScraper(endpoint string, timeout time.Duration, logger *zap.Logger) *ShoppingScraper {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultScrapeEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
	})

	return &ShoppingScraper{
		endpoint:  endpoint,
		collector: c,
		logger:    logger.Named("scraper"),
	}
}

func (s *ShoppingScraper) Name() string {
	return ProviderScrape
}

func (s *ShoppingScraper) Search(ctx context.Context, q models.ShoppingQuery) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(ErrorKindNetwork, err)
	}

	searchURL, err := s.searchURL(q)
	if err != nil {
		return nil, newError(ErrorKindConfig, err)
	}

	// Clone drops callbacks, so every search registers its own.
	c := s.collector.Clone()
	colly.StdlibContext(ctx)(c)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var (
		products   = make([]models.ProductResult, 0)
		failStatus int
		pageURL    *url.URL
	)

	c.OnResponse(func(r *colly.Response) {
		pageURL = r.Request.URL
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			failStatus = r.StatusCode
		}
	})

	matched := ""
	for _, selector := range cardSelectors {
		sel := selector
		c.OnHTML(sel, func(e *colly.HTMLElement) {
			if matched != "" && matched != sel {
				return
			}
			product, ok := extractProduct(e, pageURL)
			if !ok {
				return
			}
			matched = sel
			products = append(products, product)
		})
	}

	s.logger.Debug("scraping shopping page", zap.String("url", searchURL))
	if err := c.Visit(searchURL); err != nil {
		if failStatus != 0 {
			return nil, statusError(ProviderScrape, failStatus, "")
		}
		return nil, newError(ErrorKindNetwork, fmt.Errorf("scrape request failed: %w", err))
	}
	c.Wait()

	if matched == "" {
		s.logger.Info("no product cards found", zap.String("query", q.Query))
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return nil, newError(ErrorKindDecode, err)
	}

	s.logger.Info("scrape completed",
		zap.String("query", q.Query),
		zap.Int("products", len(products)),
		zap.String("selector", matched))
	return raw, nil
}

func (s *ShoppingScraper) searchURL(q models.ShoppingQuery) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid scrape endpoint: %w", err)
	}
	params := u.Query()
	params.Set("tbm", "shop")
	params.Set("q", q.Query)
	params.Set("hl", "en")
	if q.CountryCode != "" {
		params.Set("gl", q.CountryCode)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func extractProduct(e *colly.HTMLElement, base *url.URL) (models.ProductResult, bool) {
	title := firstText(e, titleSelectors)
	if title == "" {
		return models.ProductResult{}, false
	}

	product := models.ProductResult{
		Title: title,
		Price: firstText(e, priceSelectors),
	}

	if product.Price != "" {
		if v := utils.ParsePrice(product.Price); v > 0 && !math.IsInf(v, 0) {
			product.ExtractedPrice = &v
		}
	}
	if v := firstText(e, sourceSelectors); v != "" {
		product.Source = &v
	}
	if v := firstText(e, snippetSelectors); v != "" {
		product.Snippet = &v
	}
	if v := firstAttr(e, thumbnailSelectors, "src"); v != "" {
		v = absoluteURL(base, v)
		product.Thumbnail = &v
	}
	if v := firstAttr(e, linkSelectors, "href"); v != "" {
		v = absoluteURL(base, v)
		product.ProductLink = &v
	}
	if v := utils.ParseRating(firstText(e, ratingSelectors)); v > 0 {
		product.Rating = &v
	}
	if v := utils.ParseReviewCount(firstText(e, reviewSelectors)); v > 0 {
		product.Reviews = &v
	}

	return product, true
}

func firstText(e *colly.HTMLElement, selectors []string) string {
	for _, selector := range selectors {
		if v := strings.TrimSpace(e.ChildText(selector)); v != "" {
			return v
		}
	}
	return ""
}

func firstAttr(e *colly.HTMLElement, selectors []string, attr string) string {
	for _, selector := range selectors {
		if v := strings.TrimSpace(e.ChildAttr(selector, attr)); v != "" {
			return v
		}
	}
	return ""
}

func absoluteURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

var (
	_ Provider = (*SerpAPIProvider)(nil)
	_ Provider = (*ShoppingScraper)(nil)
)
