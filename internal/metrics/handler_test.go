package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roomshare_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// stubSink records inserts and optionally fails.
type stubSink struct {
	inserted []WebVital
	err      error
}

func (s *stubSink) Insert(_ context.Context, vital WebVital) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, vital)
	return nil
}

func postMetric(t *testing.T, sink Sink, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(sink, logger.New("production"))
	engine := gin.New()
	engine.POST("/api/metrics", handler.Report)

	req := httptest.NewRequest(http.MethodPost, "/api/metrics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestReport_StoresValidVital(t *testing.T) {
	sink := &stubSink{}
	rec := postMetric(t, sink, `{"name":"LCP","value":2300.5,"id":"v3-123","rating":"good","page":"/search"}`)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sink.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(sink.inserted))
	}
	got := sink.inserted[0]
	if got.Name != "LCP" || *got.Value != 2300.5 || got.Rating != "good" {
		t.Fatalf("unexpected vital %+v", got)
	}
}

func TestReport_ZeroValueVitalIsStored(t *testing.T) {
	// A perfect CLS is exactly 0; zero is a measurement, not an absence.
	sink := &stubSink{}
	rec := postMetric(t, sink, `{"name":"CLS","value":0,"id":"v3-789"}`)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sink.inserted) != 1 {
		t.Fatalf("expected zero-value vital stored, got %d inserts", len(sink.inserted))
	}
	if *sink.inserted[0].Value != 0 {
		t.Fatalf("expected value 0, got %v", *sink.inserted[0].Value)
	}
}

func TestReport_MalformedBeaconStillReturns204(t *testing.T) {
	sink := &stubSink{}
	cases := []string{
		`not json`,
		`{}`,
		`{"name":"BOGUS","value":1,"id":"x"}`,
		`{"name":"LCP","id":"x"}`,
	}
	for _, body := range cases {
		rec := postMetric(t, sink, body)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("body %q: expected 204, got %d", body, rec.Code)
		}
	}
	if len(sink.inserted) != 0 {
		t.Fatalf("expected malformed beacons dropped, got %d inserts", len(sink.inserted))
	}
}

func TestReport_SinkFailureStillReturns204(t *testing.T) {
	sink := &stubSink{err: errors.New("connection refused")}
	rec := postMetric(t, sink, `{"name":"CLS","value":0.02,"id":"v3-456"}`)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 even when the sink fails, got %d", rec.Code)
	}
}
