package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"atoz-search/internal/catalog"
	"atoz-search/internal/models"
)

// View is the render contract handed to the presentation layer. Results is
// the sorted sequence and RawJSON is the pretty-printed dump of exactly that
// sequence.
type View struct {
	Query               string                  `json:"query"`
	SelectedCountryCode string                  `json:"selected_country_code"`
	Status              models.Status           `json:"status"`
	ErrorMessage        string                  `json:"error_message,omitempty"`
	SortMode            models.SortMode         `json:"sort_mode"`
	ActiveView          models.ActiveView       `json:"active_view"`
	HasResults          bool                    `json:"has_results"`
	Results             []models.ProductResult  `json:"results"`
	RawJSON             string                  `json:"-"`
	Locations           []models.LocationOption `json:"-"`
}

func (v View) Searching() bool {
	return v.Status == models.StatusSearching
}

type ControllerConfig struct {
	Endpoint       string
	DefaultCountry string
}

// Controller owns one session's SearchViewState. All mutations run on a
// single event-loop goroutine; outbound searches run concurrently and report
// back through the same loop.
type Controller struct {
	cfg      ControllerConfig
	catalog  *catalog.Catalog
	searcher Searcher
	logger   *zap.Logger

	events   chan event
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
	once     sync.Once
}

type event interface {
	apply(c *Controller, s *models.SearchViewState)
}

type submitEvent struct {
	query       string
	countryCode string
}

type responseEvent struct {
	generation uint64
	results    []models.ProductResult
	err        error
}

type sortEvent struct{ mode models.SortMode }

type viewEvent struct{ view models.ActiveView }

type snapshotEvent struct{ reply chan View }

func NewController(cfg ControllerConfig, cat *catalog.Catalog, searcher Searcher, logger *zap.Logger) *Controller {
	if cat == nil {
		cat = catalog.New(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg,
		catalog:  cat,
		searcher: searcher,
		logger:   logger.Named("controller"),
		events:   make(chan event, 64),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.run(models.NewSearchViewState(cfg.DefaultCountry))
	return c
}

func (c *Controller) run(state *models.SearchViewState) {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.events:
			ev.apply(c, state)
		}
	}
}

func (c *Controller) dispatch(ev event) error {
	select {
	case <-c.ctx.Done():
		return ErrControllerClosed
	case c.events <- ev:
		return nil
	}
}

// Submit starts a new search cycle. Results and error message are cleared
// before the request is issued; an outstanding request is not cancelled.
func (c *Controller) Submit(query, countryCode string) error {
	return c.dispatch(submitEvent{query: query, countryCode: countryCode})
}

func (c *Controller) SetSortMode(mode models.SortMode) error {
	return c.dispatch(sortEvent{mode: mode})
}

func (c *Controller) SetActiveView(view models.ActiveView) error {
	return c.dispatch(viewEvent{view: view})
}

// View returns a consistent snapshot of the current screen.
func (c *Controller) View() (View, error) {
	reply := make(chan View, 1)
	if err := c.dispatch(snapshotEvent{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-c.done:
		return View{}, ErrControllerClosed
	}
}

// Close stops the event loop and waits for outstanding requests to return.
func (c *Controller) Close() {
	c.once.Do(func() {
		c.cancel()
		<-c.done
		c.inflight.Wait()
	})
}

func (e submitEvent) apply(c *Controller, s *models.SearchViewState) {
	generation := s.BeginSearch(e.query, e.countryCode)

	req, err := BuildSearchRequest(c.cfg.Endpoint, e.query, e.countryCode, c.catalog)
	if err != nil {
		c.logger.Error("cannot build search request", zap.Error(err))
		s.ApplyFailure(generation, err.Error())
		return
	}

	c.logger.Info("search submitted",
		zap.Uint64("generation", generation),
		zap.String("query", e.query),
		zap.String("country_code", e.countryCode))

	c.inflight.Add(1)
	go c.fetch(generation, req)
}

func (c *Controller) fetch(generation uint64, req *SearchRequest) {
	defer c.inflight.Done()

	ev := responseEvent{generation: generation}
	resp, err := c.searcher.Do(c.ctx, req)
	if err != nil {
		ev.err = transportFailure(err)
	} else {
		ev.results, ev.err = NormalizeResponse(resp.StatusCode, resp.Body)
	}

	if err := c.dispatch(ev); err != nil {
		c.logger.Debug("response discarded after close", zap.Uint64("generation", generation))
	}
}

func (e responseEvent) apply(c *Controller, s *models.SearchViewState) {
	var applied bool
	if e.err != nil {
		message := e.err.Error()
		var failed *SearchFailed
		if errors.As(e.err, &failed) {
			message = failed.Message
		}
		applied = s.ApplyFailure(e.generation, message)
		if applied {
			c.logger.Warn("search failed", zap.Uint64("generation", e.generation), zap.Error(e.err))
		}
	} else {
		applied = s.ApplySuccess(e.generation, e.results)
		if applied {
			c.logger.Info("search completed",
				zap.Uint64("generation", e.generation),
				zap.Int("results", len(e.results)))
		}
	}

	if !applied {
		c.logger.Info("dropping stale search response",
			zap.Uint64("generation", e.generation),
			zap.Uint64("current", s.Generation()))
	}
}

func (e sortEvent) apply(_ *Controller, s *models.SearchViewState) {
	s.SetSortMode(e.mode)
}

func (e viewEvent) apply(_ *Controller, s *models.SearchViewState) {
	s.SetActiveView(e.view)
}

func (e snapshotEvent) apply(c *Controller, s *models.SearchViewState) {
	e.reply <- c.view(s)
}

func (c *Controller) view(s *models.SearchViewState) View {
	v, err := buildView(s, c.catalog)
	if err != nil {
		c.logger.Error("cannot render raw results", zap.Error(err))
	}
	return v
}

// InitialView is the screen of a session that has not been started yet.
func InitialView(cfg ControllerConfig, cat *catalog.Catalog) View {
	if cat == nil {
		cat = catalog.New(nil)
	}
	v, _ := buildView(models.NewSearchViewState(cfg.DefaultCountry), cat)
	return v
}

func buildView(s *models.SearchViewState, cat *catalog.Catalog) (View, error) {
	sorted := SortResults(s.Results, s.SortMode)
	raw, err := RenderRawJSON(sorted)

	return View{
		Query:               s.Query,
		SelectedCountryCode: s.SelectedCountryCode,
		Status:              s.Status,
		ErrorMessage:        s.ErrorMessage,
		SortMode:            s.SortMode,
		ActiveView:          s.ActiveView,
		HasResults:          len(s.Results) > 0,
		Results:             sorted,
		RawJSON:             raw,
		Locations:           cat.Options(),
	}, err
}

// RenderRawJSON pretty-prints results with two-space indentation and no HTML
// escaping.
func RenderRawJSON(results []models.ProductResult) (string, error) {
	if results == nil {
		results = []models.ProductResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
