package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"atoz-search/internal/catalog"
	"atoz-search/internal/models"
	"atoz-search/internal/services"
)

const sampleResults = `{"shopping_results":[
	{"title":"Mid Headphones","price":"$20.00","source":"Target","thumbnail":"https://img.test/mid.jpg","product_link":"https://shop.test/mid","rating":3.5,"reviews":12345,"snippet":"Wireless"},
	{"title":"Pricey Headphones","price":"$300.00","extracted_price":300},
	{"title":"Cheap <Headphones>","price":"$5.00","rating":0,"reviews":0}
]}`

// stubSearcher returns body for every request. When gate is set the call
// blocks until it is closed.
type stubSearcher struct {
	mu     sync.Mutex
	status int
	body   string
	gate   chan struct{}
}

func (s *stubSearcher) Do(ctx context.Context, _ *services.SearchRequest) (*services.RawResponse, error) {
	s.mu.Lock()
	gate, status, body := s.gate, s.status, s.body
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	if body == "" {
		body = `{"shopping_results":[]}`
	}
	return &services.RawResponse{StatusCode: status, Body: []byte(body)}, nil
}

type uiClient struct {
	t      *testing.T
	engine *gin.Engine
	store  *SessionStore
	cookie *http.Cookie
}

func newUIClient(t *testing.T, searcher services.Searcher) *uiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.New([]models.LocationOption{
		{CountryCode: "us", CountryName: "United States"},
		{CountryCode: "in", CountryName: "India"},
	})
	cfg := services.ControllerConfig{
		Endpoint:       "http://search.test/search",
		DefaultCountry: "us",
	}
	store := NewSessionStore(func() *services.Controller {
		return services.NewController(cfg, cat, searcher, zap.NewNop())
	}, time.Hour, zap.NewNop())
	t.Cleanup(store.Close)

	h, err := NewHandler(store, services.InitialView(cfg, cat), zap.NewNop())
	require.NoError(t, err)

	engine := gin.New()
	h.Register(engine)
	return &uiClient{t: t, engine: engine, store: store}
}

func (u *uiClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	u.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if u.cookie != nil {
		req.AddCookie(u.cookie)
	}

	w := httptest.NewRecorder()
	u.engine.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			u.cookie = c
		}
	}
	return w
}

func (u *uiClient) page() *goquery.Document {
	u.t.Helper()
	w := u.do(http.MethodGet, "/", nil)
	require.Equal(u.t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(u.t, err)
	return doc
}

func (u *uiClient) state() services.View {
	u.t.Helper()
	w := u.do(http.MethodGet, "/ui/state", nil)
	require.Equal(u.t, http.StatusOK, w.Code)

	var raw struct {
		Status       string                 `json:"status"`
		Query        string                 `json:"query"`
		ErrorMessage string                 `json:"error_message"`
		SortMode     models.SortMode        `json:"sort_mode"`
		ActiveView   models.ActiveView      `json:"active_view"`
		HasResults   bool                   `json:"has_results"`
		Results      []models.ProductResult `json:"results"`
	}
	require.NoError(u.t, json.Unmarshal(w.Body.Bytes(), &raw))

	view := services.View{
		Query:        raw.Query,
		ErrorMessage: raw.ErrorMessage,
		SortMode:     raw.SortMode,
		ActiveView:   raw.ActiveView,
		HasResults:   raw.HasResults,
		Results:      raw.Results,
	}
	switch raw.Status {
	case "searching":
		view.Status = models.StatusSearching
	case "success":
		view.Status = models.StatusSuccess
	case "error":
		view.Status = models.StatusError
	}
	return view
}

func (u *uiClient) waitFor(status models.Status) {
	u.t.Helper()
	require.Eventually(u.t, func() bool {
		return u.state().Status == status
	}, 2*time.Second, 10*time.Millisecond)
}

func resultTitles(doc *goquery.Document) []string {
	var titles []string
	doc.Find("li.result .title").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	return titles
}

func TestIndex_InitialPage(t *testing.T) {
	u := newUIClient(t, &stubSearcher{})

	doc := u.page()

	assert.Nil(t, u.cookie)
	assert.Equal(t, 0, u.store.Len())

	assert.Equal(t, 1, doc.Find("#tab-products.active").Length())
	assert.Equal(t, 0, doc.Find("#tab-json.active").Length())
	assert.Equal(t, 2, doc.Find("select[name=country_code] option").Length())
	assert.Equal(t, "us", doc.Find("select[name=country_code] option[selected]").AttrOr("value", ""))
	assert.Equal(t, "Search", strings.TrimSpace(doc.Find("#search-form button").Text()))
	assert.Equal(t, 0, doc.Find("#sort-form").Length())
	assert.Equal(t, 0, doc.Find("#error").Length())
	assert.Equal(t, 0, doc.Find("meta[http-equiv=refresh]").Length())
}

func TestReadOnlyRequestsDoNotCreateSessions(t *testing.T) {
	u := newUIClient(t, &stubSearcher{})

	for i := 0; i < 5; i++ {
		u.page()
		u.state()
	}
	u.cookie = &http.Cookie{Name: SessionCookie, Value: "unknown"}
	u.page()

	assert.Equal(t, 0, u.store.Len())
	assert.Equal(t, models.StatusIdle, u.state().Status)
}

func TestSessionCookieIsReused(t *testing.T) {
	u := newUIClient(t, &stubSearcher{})

	u.do(http.MethodPost, "/ui/search", url.Values{"q": {"tv"}})
	require.NotNil(t, u.cookie)
	assert.NotEmpty(t, u.cookie.Value)
	assert.True(t, u.cookie.HttpOnly)
	first := u.cookie.Value

	u.page()
	u.do(http.MethodPost, "/ui/sort", url.Values{"sort": {"low"}})

	assert.Equal(t, first, u.cookie.Value)
	assert.Equal(t, 1, u.store.Len())
	assert.Equal(t, "tv", u.state().Query)
}

func TestSearchFlow(t *testing.T) {
	u := newUIClient(t, &stubSearcher{body: sampleResults})
	u.page()

	w := u.do(http.MethodPost, "/ui/search", url.Values{"q": {"headphones"}, "country_code": {"in"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	u.waitFor(models.StatusSuccess)

	doc := u.page()
	assert.Equal(t, []string{"Mid Headphones", "Pricey Headphones", "Cheap <Headphones>"}, resultTitles(doc))
	assert.Equal(t, "headphones", doc.Find("input[name=q]").AttrOr("value", ""))
	assert.Equal(t, "in", doc.Find("select[name=country_code] option[selected]").AttrOr("value", ""))
	assert.Equal(t, 1, doc.Find("#sort-form").Length())

	first := doc.Find("li.result").First()
	assert.Equal(t, "https://shop.test/mid", first.Find("a.title").AttrOr("href", ""))
	assert.Equal(t, "https://img.test/mid.jpg", first.Find("img").AttrOr("src", ""))
	assert.Equal(t, "Target", first.Find(".source").Text())
	assert.Equal(t, "Wireless", first.Find(".snippet").Text())
	assert.Equal(t, "$20.00", first.Find(".price").Text())
	assert.Equal(t, "(12,345 reviews)", first.Find(".review-count").Text())
	assert.Equal(t, 3, first.Find(".star-full").Length())
	assert.Equal(t, 1, first.Find(".star-half").Length())
	assert.Equal(t, 1, first.Find(".star-empty").Length())

	last := doc.Find("li.result").Last()
	assert.Equal(t, 0, last.Find("img").Length())
	assert.Equal(t, 0, last.Find("a.title").Length())
	assert.Equal(t, 0, last.Find(".stars").Length())
	assert.Equal(t, 0, last.Find(".review-count").Length())
}

func TestSortAndRawView(t *testing.T) {
	u := newUIClient(t, &stubSearcher{body: sampleResults})
	u.page()
	u.do(http.MethodPost, "/ui/search", url.Values{"q": {"headphones"}})
	u.waitFor(models.StatusSuccess)

	w := u.do(http.MethodPost, "/ui/sort", url.Values{"sort": {"low"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	doc := u.page()
	assert.Equal(t, []string{"Cheap <Headphones>", "Mid Headphones", "Pricey Headphones"}, resultTitles(doc))
	assert.Equal(t, "low", doc.Find("#sort option[selected]").AttrOr("value", ""))

	u.do(http.MethodPost, "/ui/sort", url.Values{"sort": {"high"}})
	assert.Equal(t, []string{"Pricey Headphones", "Mid Headphones", "Cheap <Headphones>"}, resultTitles(u.page()))

	w = u.do(http.MethodPost, "/ui/view", url.Values{"view": {"json"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	doc = u.page()
	assert.Equal(t, 1, doc.Find("#tab-json.active").Length())
	assert.Equal(t, 0, doc.Find("#search-form").Length())

	raw := doc.Find("#raw-data").Text()
	var dumped []models.ProductResult
	require.NoError(t, json.Unmarshal([]byte(raw), &dumped))
	require.Len(t, dumped, 3)
	assert.Equal(t, "Pricey Headphones", dumped[0].Title)
	assert.Equal(t, "Cheap <Headphones>", dumped[2].Title)
	assert.Contains(t, raw, "\n  {\n    \"title\"")

	state := u.state()
	assert.Equal(t, models.SortPriceDesc, state.SortMode)
	assert.Equal(t, models.ViewRawData, state.ActiveView)
	assert.Equal(t, "Pricey Headphones", state.Results[0].Title)
}

func TestSearchingPageRefreshes(t *testing.T) {
	gate := make(chan struct{})
	u := newUIClient(t, &stubSearcher{body: sampleResults, gate: gate})
	u.page()

	u.do(http.MethodPost, "/ui/search", url.Values{"q": {"headphones"}})
	doc := u.page()

	assert.Equal(t, 1, doc.Find("meta[http-equiv=refresh]").Length())
	assert.Equal(t, "Searching...", strings.TrimSpace(doc.Find("#search-form button").Text()))
	_, disabled := doc.Find("#search-form button").Attr("disabled")
	assert.False(t, disabled)

	close(gate)
	u.waitFor(models.StatusSuccess)
	assert.Equal(t, 0, u.page().Find("meta[http-equiv=refresh]").Length())
}

func TestSearchError(t *testing.T) {
	u := newUIClient(t, &stubSearcher{status: http.StatusInternalServerError, body: `{"error":"boom"}`})
	u.page()

	u.do(http.MethodPost, "/ui/search", url.Values{"q": {"headphones"}})
	u.waitFor(models.StatusError)

	doc := u.page()
	assert.Equal(t, "API error: 500", doc.Find("#error").Text())
	assert.Equal(t, 0, doc.Find("li.result").Length())
	assert.Equal(t, 0, doc.Find("#sort-form").Length())
}

func TestInvalidForms(t *testing.T) {
	u := newUIClient(t, &stubSearcher{})

	assert.Equal(t, http.StatusBadRequest, u.do(http.MethodPost, "/ui/sort", url.Values{"sort": {"cheapest"}}).Code)
	assert.Equal(t, http.StatusBadRequest, u.do(http.MethodPost, "/ui/view", url.Values{"view": {"xml"}}).Code)
}
