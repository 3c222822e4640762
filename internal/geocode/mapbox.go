package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"roomshare_backend/platform/logger"
	"roomshare_backend/platform/sanitize"
)

const mapboxUserAgent = "RoomshareSuggest/1.0"

// Mapbox queries the Mapbox forward-geocoding API. Responses carry an
// array of features with place_name and center, plus an optional bbox.
type Mapbox struct {
	baseURL string
	token   string
	rest    *restClient
}

// NewMapbox creates a Mapbox provider. The access token is sent as a query
// parameter per the provider's API contract.
func NewMapbox(baseURL, token string, timeout time.Duration, rps float64, log *logger.Logger) *Mapbox {
	if baseURL == "" {
		baseURL = "https://api.mapbox.com"
	}
	return &Mapbox{
		baseURL: baseURL,
		token:   token,
		rest:    newRESTClient("mapbox", timeout, rps, log),
	}
}

func (m *Mapbox) Name() string { return "mapbox" }

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
	BBox      []float64 `json:"bbox"`
}

// Search implements Provider. The query is path-escaped so non-ASCII and
// reserved characters survive the provider's path-segment placement.
func (m *Mapbox) Search(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("access_token", m.token)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("autocomplete", "true")

	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		m.baseURL, url.PathEscape(query), params.Encode())

	var payload mapboxResponse
	if err := m.rest.getJSON(ctx, reqURL, mapboxUserAgent, &payload); err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(payload.Features))
	for _, feature := range payload.Features {
		if feature.PlaceName == "" || len(feature.Center) < 2 {
			continue
		}
		suggestion := Suggestion{
			ID:   feature.ID,
			Name: sanitize.DisplayName(feature.PlaceName),
			Lng:  feature.Center[0],
			Lat:  feature.Center[1],
		}
		// Mapbox bbox order is [west, south, east, north], same as ours.
		if len(feature.BBox) == 4 {
			suggestion.BBox = &[4]float64{feature.BBox[0], feature.BBox[1], feature.BBox[2], feature.BBox[3]}
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}

var _ Provider = (*Mapbox)(nil)
