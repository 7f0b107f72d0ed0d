package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchFailed matches every *SearchFailed via errors.Is.
	ErrSearchFailed = errors.New("search failed")

	// ErrControllerClosed is returned by controller methods after Close.
	ErrControllerClosed = errors.New("controller closed")

	// ErrInvalidQuery is returned when proxy parameters fail validation.
	ErrInvalidQuery = errors.New("invalid search parameters")
)

// SearchFailed is the user-visible failure of one search cycle. Message is
// what the UI shows.
type SearchFailed struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SearchFailed) Error() string {
	return e.Message
}

func (e *SearchFailed) Unwrap() error {
	return e.Err
}

func (e *SearchFailed) Is(target error) bool {
	return target == ErrSearchFailed
}

func statusFailure(code int) *SearchFailed {
	return &SearchFailed{StatusCode: code, Message: fmt.Sprintf("API error: %d", code)}
}

func transportFailure(err error) *SearchFailed {
	return &SearchFailed{Message: err.Error(), Err: err}
}
