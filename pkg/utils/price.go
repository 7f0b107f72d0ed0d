package utils

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonPriceChars  = regexp.MustCompile(`[^\d.]`)
	leadingDecimal = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)`)
	ratingNumber   = regexp.MustCompile(`\d+(\.\d+)?`)
	reviewDigits   = regexp.MustCompile(`[^\d]`)
)

// ParsePrice derives a numeric price from display text such as "$1,299.99"
// or "₹ 54,999". Every character that is not a digit or '.' is dropped and
// the longest leading decimal number is parsed, so "1.2.3" yields 1.2.
// Text without a parsable number yields 0; a digit run too long for a
// float64 yields +Inf.
func ParsePrice(priceStr string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(priceStr, "")
	match := leadingDecimal.FindString(cleaned)
	if match == "" {
		return 0
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}

	return price
}

// ParseRating converts rating text to float64 (e.g., "4.5 out of 5 stars" -> 4.5).
func ParseRating(ratingStr string) float64 {
	match := ratingNumber.FindString(strings.TrimSpace(ratingStr))
	if match == "" {
		return 0
	}

	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	return rating
}

// ParseReviewCount extracts a count from text like "(1,234)" or "2.1K reviews".
func ParseReviewCount(reviewStr string) int {
	s := strings.TrimSpace(strings.ToUpper(reviewStr))
	multiplier := 1.0
	if i := strings.IndexAny(s, "KM"); i > 0 {
		if s[i] == 'K' {
			multiplier = 1000
		} else {
			multiplier = 1000000
		}
		n := math.Round(ParsePrice(s[:i]) * multiplier)
		if n > math.MaxInt32 {
			return 0
		}
		return int(n)
	}

	digits := reviewDigits.ReplaceAllString(s, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
