package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roomshare_backend/platform/logger"
	"roomshare_backend/platform/sanitize"
)

const photonUserAgent = "RoomshareSuggest/1.0"

// Photon queries the Komoot Photon open-data geocoder. Responses are a
// GeoJSON FeatureCollection: properties.name plus geometry.coordinates,
// with an optional properties.extent bounding box.
type Photon struct {
	baseURL string
	rest    *restClient
}

// NewPhoton creates a Photon provider. baseURL defaults to the public
// instance when empty.
func NewPhoton(baseURL string, timeout time.Duration, rps float64, log *logger.Logger) *Photon {
	if baseURL == "" {
		baseURL = "https://photon.komoot.io"
	}
	return &Photon{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    newRESTClient("photon", timeout, rps, log),
	}
}

func (p *Photon) Name() string { return "photon" }

type photonResponse struct {
	Features []photonFeature `json:"features"`
}

type photonFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		OsmID   int64     `json:"osm_id"`
		Name    string    `json:"name"`
		City    string    `json:"city"`
		State   string    `json:"state"`
		Country string    `json:"country"`
		Extent  []float64 `json:"extent"`
	} `json:"properties"`
}

// Search implements Provider.
func (p *Photon) Search(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/api?%s", p.baseURL, params.Encode())

	var payload photonResponse
	if err := p.rest.getJSON(ctx, reqURL, photonUserAgent, &payload); err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(payload.Features))
	for _, feature := range payload.Features {
		suggestion, ok := buildPhotonSuggestion(feature)
		if !ok {
			continue
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}

func buildPhotonSuggestion(feature photonFeature) (Suggestion, bool) {
	if feature.Properties.Name == "" || len(feature.Geometry.Coordinates) < 2 {
		return Suggestion{}, false
	}

	suggestion := Suggestion{
		ID:   strconv.FormatInt(feature.Properties.OsmID, 10),
		Name: photonLabel(feature),
		// GeoJSON coordinate order is [lng, lat]
		Lng: feature.Geometry.Coordinates[0],
		Lat: feature.Geometry.Coordinates[1],
	}

	// Photon extent order is [west, north, east, south]
	if extent := feature.Properties.Extent; len(extent) == 4 {
		suggestion.BBox = &[4]float64{extent[0], extent[3], extent[2], extent[1]}
	}

	return suggestion, true
}

func photonLabel(feature photonFeature) string {
	parts := []string{feature.Properties.Name}
	if city := feature.Properties.City; city != "" && city != feature.Properties.Name {
		parts = append(parts, city)
	}
	if state := feature.Properties.State; state != "" {
		parts = append(parts, state)
	}
	if country := feature.Properties.Country; country != "" {
		parts = append(parts, country)
	}
	return sanitize.DisplayName(strings.Join(parts, ", "))
}

var _ Provider = (*Photon)(nil)
