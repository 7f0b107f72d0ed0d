package catalog

import (
	_ "embed"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"atoz-search/internal/models"
)

//go:embed location.json
var defaultLocations []byte

// Catalog is the list of selectable regions. It is immutable once built and
// safe for concurrent use.
type Catalog struct {
	options []models.LocationOption
	byCode  map[string]string
}

func New(options []models.LocationOption) *Catalog {
	byCode := make(map[string]string, len(options))
	for _, o := range options {
		byCode[o.CountryCode] = o.CountryName
	}
	return &Catalog{options: options, byCode: byCode}
}

// Default returns the embedded catalog.
func Default() *Catalog {
	return New(Flatten(defaultLocations))
}

// Load reads a catalog file. An empty path selects the embedded catalog; a
// file that cannot be read degrades to an empty catalog so the search form
// still renders.
func Load(path string, logger *zap.Logger) *Catalog {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("location catalog unavailable, using empty list",
			zap.String("path", path), zap.Error(err))
		return New(nil)
	}

	options := Flatten(raw)
	if len(options) == 0 {
		logger.Warn("location catalog has no usable entries", zap.String("path", path))
	}
	return New(options)
}

// Flatten accepts either a flat array of {country_code, country_name}
// objects or an array whose first element is such an array. Any other shape
// yields an empty list.
func Flatten(raw []byte) []models.LocationOption {
	options := make([]models.LocationOption, 0)
	if !gjson.ValidBytes(raw) {
		return options
	}

	root := gjson.ParseBytes(raw)
	list := root
	if first := root.Get("0"); first.IsArray() {
		list = first
	} else if !root.IsArray() {
		return options
	}

	seen := make(map[string]struct{})
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		code := item.Get("country_code")
		if code.Type != gjson.String || code.Str == "" {
			return true
		}
		if _, dup := seen[code.Str]; dup {
			return true
		}
		seen[code.Str] = struct{}{}
		options = append(options, models.LocationOption{
			CountryCode: code.Str,
			CountryName: item.Get("country_name").String(),
		})
		return true
	})

	return options
}

func (c *Catalog) Options() []models.LocationOption {
	out := make([]models.LocationOption, len(c.options))
	copy(out, c.options)
	return out
}

// Lookup returns the display name for a country code.
func (c *Catalog) Lookup(code string) (string, bool) {
	name, ok := c.byCode[code]
	return name, ok
}

func (c *Catalog) Len() int {
	return len(c.options)
}
