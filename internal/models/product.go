package models

import "encoding/json"

// ProductResult is one shopping listing. Optional fields are nil when the
// upstream response did not carry them.
type ProductResult struct {
	Title          string   `json:"title"`
	Price          string   `json:"price"`
	ExtractedPrice *float64 `json:"extracted_price,omitempty"`
	Source         *string  `json:"source,omitempty"`
	Thumbnail      *string  `json:"thumbnail,omitempty"`
	ProductLink    *string  `json:"product_link,omitempty"`
	Snippet        *string  `json:"snippet,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	Reviews        *int     `json:"reviews,omitempty"`
}

type LocationOption struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
}

// ShoppingQuery is what the /search proxy forwards upstream.
type ShoppingQuery struct {
	Query       string `json:"q"`
	Location    string `json:"location"`
	Device      string `json:"device"`
	CountryCode string `json:"country_code"`
}

type ShoppingResponse struct {
	ShoppingResults json.RawMessage `json:"shopping_results"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
