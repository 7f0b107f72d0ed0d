package ui

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"atoz-search/internal/models"
	"atoz-search/internal/services"
)

const SessionCookie = "atoz_session"

type sortOption struct {
	Value models.SortMode
	Label string
}

var sortOptions = []sortOption{
	{Value: models.SortDefault, Label: "Default"},
	{Value: models.SortPriceAsc, Label: "Price: Low to High"},
	{Value: models.SortPriceDesc, Label: "Price: High to Low"},
}

type page struct {
	View        services.View
	SortOptions []sortOption
}

// Handler serves the search page and the form endpoints that drive each
// session's controller.
// Read-only requests never create a session; a visitor without one is shown
// blank, the screen of a session that has not started.
type Handler struct {
	sessions       *SessionStore
	templates      *template.Template
	blank          services.View
	defaultCountry string
	cookieMaxAge   int
	logger         *zap.Logger
}

func NewHandler(sessions *SessionStore, blank services.View, logger *zap.Logger) (*Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ui templates: %w", err)
	}
	return &Handler{
		sessions:       sessions,
		templates:      tmpl,
		blank:          blank,
		defaultCountry: blank.SelectedCountryCode,
		cookieMaxAge:   int(sessions.ttl.Seconds()),
		logger:         logger.Named("ui"),
	}, nil
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.GET("/ui/state", h.State)
	r.POST("/ui/search", h.Search)
	r.POST("/ui/sort", h.Sort)
	r.POST("/ui/view", h.SwitchView)
}

func (h *Handler) session(c *gin.Context) *services.Controller {
	id, _ := c.Cookie(SessionCookie)
	id, controller := h.sessions.Acquire(id)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, h.cookieMaxAge, "/", "", false, true)
	return controller
}

// currentView returns the caller's view without creating a session.
func (h *Handler) currentView(c *gin.Context) (services.View, error) {
	id, err := c.Cookie(SessionCookie)
	if err != nil {
		return h.blank, nil
	}
	controller, ok := h.sessions.Lookup(id)
	if !ok {
		return h.blank, nil
	}
	view, err := controller.View()
	if errors.Is(err, services.ErrControllerClosed) {
		// Evicted between Lookup and View.
		return h.blank, nil
	}
	return view, err
}

func (h *Handler) Index(c *gin.Context) {
	view, err := h.currentView(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Render(http.StatusOK, render.HTML{
		Template: h.templates,
		Name:     "index.html",
		Data:     page{View: view, SortOptions: sortOptions},
	})
}

func (h *Handler) State(c *gin.Context) {
	view, err := h.currentView(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Search(c *gin.Context) {
	controller := h.session(c)

	countryCode := c.PostForm("country_code")
	if countryCode == "" {
		countryCode = h.defaultCountry
	}

	if err := controller.Submit(c.PostForm("q"), countryCode); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Sort(c *gin.Context) {
	mode, ok := models.ParseSortMode(c.PostForm("sort"))
	if !ok {
		h.badRequest(c, "sort must be one of default, low, high")
		return
	}

	if err := h.session(c).SetSortMode(mode); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) SwitchView(c *gin.Context) {
	view, ok := models.ParseActiveView(c.PostForm("view"))
	if !ok {
		h.badRequest(c, "view must be one of products, json")
		return
	}

	if err := h.session(c).SetActiveView(view); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_form",
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, services.ErrControllerClosed) {
		status = http.StatusServiceUnavailable
	}
	h.logger.Error("session request failed", zap.Error(err))
	c.JSON(status, models.ErrorResponse{
		Error:   "session_error",
		Code:    status,
		Message: err.Error(),
	})
}
