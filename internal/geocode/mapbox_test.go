package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const mapboxFixture = `{
	"features": [
		{
			"id": "place.123",
			"place_name": "Austin, Texas, United States",
			"center": [-97.7431, 30.2672],
			"bbox": [-98.08, 30.07, -97.52, 30.52]
		},
		{
			"id": "place.456",
			"place_name": "Austin, Minnesota, United States",
			"center": [-92.9746, 43.6666]
		},
		{
			"id": "place.789",
			"place_name": "",
			"center": [1, 2]
		}
	]
}`

func newTestMapbox(t *testing.T, handler http.HandlerFunc) *Mapbox {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMapbox(srv.URL, "test-token", time.Second, 1000, nil)
}

func TestMapbox_Search_ParsesFeatures(t *testing.T) {
	var gotPath, gotToken, gotLimit string
	provider := newTestMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotToken = r.URL.Query().Get("access_token")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(mapboxFixture))
	})

	results, err := provider.Search(context.Background(), "Austin", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/geocoding/v5/mapbox.places/Austin.json") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotToken != "test-token" {
		t.Fatalf("expected access token forwarded, got %q", gotToken)
	}
	if gotLimit != "5" {
		t.Fatalf("expected limit=5, got %q", gotLimit)
	}

	// The nameless feature is skipped.
	if len(results) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(results))
	}
	first := results[0]
	if first.ID != "place.123" || first.Name != "Austin, Texas, United States" {
		t.Fatalf("unexpected first suggestion %+v", first)
	}
	if first.Lat != 30.2672 || first.Lng != -97.7431 {
		t.Fatalf("expected center [lng,lat] remapped, got lat=%v lng=%v", first.Lat, first.Lng)
	}
	want := [4]float64{-98.08, 30.07, -97.52, 30.52}
	if first.BBox == nil || *first.BBox != want {
		t.Fatalf("expected bbox %v, got %v", want, first.BBox)
	}
	if results[1].BBox != nil {
		t.Fatalf("expected no bbox when absent")
	}
}

func TestMapbox_Search_PathEscapesQuery(t *testing.T) {
	var gotPath string
	provider := newTestMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	if _, err := provider.Search(context.Background(), "São Paulo / Centro", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(gotPath, " ") {
		t.Fatalf("expected spaces escaped in path, got %q", gotPath)
	}
	if !strings.Contains(gotPath, "%2F") {
		t.Fatalf("expected slash escaped so it stays one path segment, got %q", gotPath)
	}
}
