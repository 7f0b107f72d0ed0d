package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func starKinds(rating float64) []StarKind {
	var kinds []StarKind
	for _, s := range Stars(rating) {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

func TestStars(t *testing.T) {
	tests := []struct {
		rating float64
		want   []StarKind
	}{
		{0, []StarKind{StarEmpty, StarEmpty, StarEmpty, StarEmpty, StarEmpty}},
		{0.5, []StarKind{StarHalf, StarEmpty, StarEmpty, StarEmpty, StarEmpty}},
		{3, []StarKind{StarFull, StarFull, StarFull, StarEmpty, StarEmpty}},
		{3.4, []StarKind{StarFull, StarFull, StarFull, StarEmpty, StarEmpty}},
		{3.5, []StarKind{StarFull, StarFull, StarFull, StarHalf, StarEmpty}},
		{4.7, []StarKind{StarFull, StarFull, StarFull, StarFull, StarHalf}},
		{5, []StarKind{StarFull, StarFull, StarFull, StarFull, StarFull}},
		{7, []StarKind{StarFull, StarFull, StarFull, StarFull, StarFull}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, starKinds(tt.rating), "rating %v", tt.rating)
	}
}

func TestStarsGlyphs(t *testing.T) {
	stars := Stars(1.5)

	assert.Equal(t, "★", stars[0].Glyph)
	assert.Equal(t, "☆", stars[1].Glyph)
	assert.Equal(t, "★", stars[2].Glyph)
}

func TestFormatReviews(t *testing.T) {
	assert.Equal(t, "7", FormatReviews(7))
	assert.Equal(t, "1,234", FormatReviews(1234))
	assert.Equal(t, "12,345,678", FormatReviews(12345678))
}

func TestParseTemplates(t *testing.T) {
	tmpl, err := parseTemplates()

	assert.NoError(t, err)
	assert.NotNil(t, tmpl.Lookup("index.html"))
}
