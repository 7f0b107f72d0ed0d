package services

import (
	"cmp"
	"math"
	"slices"

	"atoz-search/internal/models"
	"atoz-search/pkg/utils"
)

// PriceKey is the comparison key used for price ordering: extracted_price
// when present, otherwise the number parsed from the display price.
func PriceKey(p models.ProductResult) float64 {
	if p.ExtractedPrice != nil && !math.IsNaN(*p.ExtractedPrice) {
		return *p.ExtractedPrice
	}
	return utils.ParsePrice(p.Price)
}

// SortResults returns a newly ordered copy of results. SortDefault keeps the
// server's relevance order. Price orders are stable in both directions.
func SortResults(results []models.ProductResult, mode models.SortMode) []models.ProductResult {
	out := make([]models.ProductResult, len(results))
	copy(out, results)

	var compare func(a, b float64) int
	switch mode {
	case models.SortPriceAsc:
		compare = cmp.Compare[float64]
	case models.SortPriceDesc:
		compare = func(a, b float64) int { return cmp.Compare(b, a) }
	default:
		return out
	}

	type keyed struct {
		key  float64
		item models.ProductResult
	}
	rows := make([]keyed, len(out))
	for i, p := range out {
		rows[i] = keyed{key: PriceKey(p), item: p}
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		return compare(a.key, b.key)
	})

	for i, r := range rows {
		out[i] = r.item
	}
	return out
}
