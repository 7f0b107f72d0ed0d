package services

import (
	"math"

	"github.com/tidwall/gjson"

	"atoz-search/internal/models"
)

// NormalizeResponse turns a raw search response into product results.
// A non-2xx status or a body that is not JSON yields *SearchFailed. A
// missing, null or non-array shopping_results yields an empty slice.
func NormalizeResponse(statusCode int, body []byte) ([]models.ProductResult, error) {
	if statusCode < 200 || statusCode >= 300 {
		return nil, statusFailure(statusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, &SearchFailed{
			StatusCode: statusCode,
			Message:    "Invalid response: body is not valid JSON",
		}
	}

	results := make([]models.ProductResult, 0)
	list := gjson.GetBytes(body, "shopping_results")
	if !list.IsArray() {
		return results, nil
	}

	list.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			results = append(results, normalizeItem(item))
		}
		return true
	})
	return results, nil
}

func normalizeItem(item gjson.Result) models.ProductResult {
	return models.ProductResult{
		Title:          text(item.Get("title")),
		Price:          text(item.Get("price")),
		ExtractedPrice: optionalNumber(item.Get("extracted_price")),
		Source:         optionalString(item.Get("source")),
		Thumbnail:      optionalString(item.Get("thumbnail")),
		ProductLink:    optionalString(item.Get("product_link")),
		Snippet:        optionalString(item.Get("snippet")),
		Rating:         optionalNumber(item.Get("rating")),
		Reviews:        optionalInt(item.Get("reviews")),
	}
}

// text renders strings and numbers; anything else is treated as absent.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	}
	return ""
}

func optionalString(r gjson.Result) *string {
	if r.Type != gjson.String {
		return nil
	}
	s := r.Str
	return &s
}

func optionalNumber(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	f := r.Num
	return &f
}

// optionalInt accepts only non-negative whole numbers.
func optionalInt(r gjson.Result) *int {
	if r.Type != gjson.Number {
		return nil
	}
	f := r.Float()
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
