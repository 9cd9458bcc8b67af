package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedPlatform is returned for a platform tag outside the
	// known set of sourcing marketplaces.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrAuthFailed is returned when a destination access token could not
	// be minted.
	ErrAuthFailed = errors.New("access token mint failed")

	// ErrMalformedTask is returned when a queued payload cannot be decoded.
	ErrMalformedTask = errors.New("malformed task payload")
)

// ExtractionError reports a page that never reached a recognizable terminal
// state, or one with required fields missing or invalid. Fields holds the
// raw values observed so far for diagnostics.
type ExtractionError struct {
	URL    string
	Reason string
	Fields map[string]string
}

func (e *ExtractionError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Fields[k]))
	}
	return fmt.Sprintf("extraction failed for %s: %s [%s]", e.URL, e.Reason, strings.Join(parts, " "))
}

// ListingError is any non-2xx or malformed response from the destination
// marketplace API.
type ListingError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing client %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}
