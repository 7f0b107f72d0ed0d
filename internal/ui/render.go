package ui

import (
	"embed"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

type StarKind string

const (
	StarFull  StarKind = "full"
	StarHalf  StarKind = "half"
	StarEmpty StarKind = "empty"
)

type Star struct {
	Kind  StarKind
	Glyph string
}

// Stars renders a rating out of five. Position i is full when rating >= i,
// half when rating >= i-0.5 and empty otherwise.
func Stars(rating float64) []Star {
	stars := make([]Star, 0, 5)
	for i := 1; i <= 5; i++ {
		pos := float64(i)
		switch {
		case rating >= pos:
			stars = append(stars, Star{Kind: StarFull, Glyph: "★"})
		case rating >= pos-0.5:
			stars = append(stars, Star{Kind: StarHalf, Glyph: "☆"})
		default:
			stars = append(stars, Star{Kind: StarEmpty, Glyph: "★"})
		}
	}
	return stars
}

var englishPrinter = message.NewPrinter(language.English)

// FormatReviews groups thousands the English way: 12345 -> "12,345".
func FormatReviews(n int) string {
	return englishPrinter.Sprintf("%d", n)
}

var templateFuncs = template.FuncMap{
	"stars":   Stars,
	"reviews": FormatReviews,
	"text": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"rating": func(r *float64) float64 {
		if r == nil {
			return 0
		}
		return *r
	},
	"count": func(n *int) int {
		if n == nil {
			return 0
		}
		return *n
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("ui").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}
