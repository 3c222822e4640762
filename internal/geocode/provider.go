// Package geocode integrates external geocoding providers and normalizes
// their responses into one Suggestion shape.
package geocode

import "context"

// Suggestion is one geocoding result in provider-independent form.
// BBox, when present, is ordered [west, south, east, north].
type Suggestion struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Lat  float64     `json:"lat"`
	Lng  float64     `json:"lng"`
	BBox *[4]float64 `json:"bbox,omitempty"`
}

// Provider searches free text for place suggestions.
// Implementations must URL-encode the query, honor ctx cancellation, and
// return errors classified through the apperr taxonomy (classifyStatus /
// classifyTransport).
type Provider interface {
	// Name identifies the provider for logging.
	Name() string
	// Search returns up to limit suggestions for the query.
	Search(ctx context.Context, query string, limit int) ([]Suggestion, error)
}
