package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"roomshare_backend/internal/geocode"
	"roomshare_backend/platform/apperr"
)

// fakeResolver scripts Suggest responses per query and records calls.
// ignoreCtx makes delayed responses run to completion even when the
// fetch context is canceled, mimicking a resolver that answers from a
// source cancellation cannot reach.
type fakeResolver struct {
	mu         sync.Mutex
	responses  map[string][]geocode.Suggestion
	errs       map[string]error
	delays     map[string]time.Duration
	ignoreCtx  bool
	calls      []string
	selections []geocode.Suggestion
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		responses: make(map[string][]geocode.Suggestion),
		errs:      make(map[string]error),
		delays:    make(map[string]time.Duration),
	}
}

func (f *fakeResolver) Suggest(ctx context.Context, raw string) ([]geocode.Suggestion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, raw)
	delay := f.delays[raw]
	err := f.errs[raw]
	results := f.responses[raw]
	ignoreCtx := f.ignoreCtx
	f.mu.Unlock()

	if delay > 0 {
		if ignoreCtx {
			time.Sleep(delay)
		} else {
			select {
			case <-ctx.Done():
				return nil, apperr.Wrap(apperr.KindCanceled, "request canceled", ctx.Err())
			case <-time.After(delay):
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (f *fakeResolver) RecordSelection(_ context.Context, _ string, chosen geocode.Suggestion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selections = append(f.selections, chosen)
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeResolver) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeResolver) selected() []geocode.Suggestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]geocode.Suggestion(nil), f.selections...)
}

func sanResults() []geocode.Suggestion {
	return []geocode.Suggestion{
		{ID: "1", Name: "San Francisco, California, United States", Lat: 37.77, Lng: -122.42},
		{ID: "2", Name: "San Diego, California, United States", Lat: 32.72, Lng: -117.16},
		{ID: "3", Name: "San Jose, California, United States", Lat: 37.34, Lng: -121.89},
	}
}

const testDebounce = 20 * time.Millisecond

func waitForState(t *testing.T, s *Session, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		snap := s.Snapshot()
		if snap.State == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached %q, last %q", want, s.Snapshot().State)
	return Snapshot{}
}

func typeQuery(s *Session, steps ...string) {
	for _, step := range steps {
		s.Input(step)
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSession_RapidTypingResolvesOnce(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	typeQuery(s, "S", "Sa", "San")

	snap := waitForState(t, s, StateResults)
	if len(snap.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(snap.Suggestions))
	}
	if snap.Highlight != -1 {
		t.Fatalf("expected no initial highlight, got %d", snap.Highlight)
	}
	if snap.Busy {
		t.Fatalf("expected busy cleared after resolution")
	}

	if got := resolver.callLog(); len(got) != 1 || got[0] != "San" {
		t.Fatalf("expected one resolution of the settled value, got %v", got)
	}
}

func TestSession_ShortInputShowsHintWithoutFetching(t *testing.T) {
	resolver := newFakeResolver()
	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("a")
	time.Sleep(3 * testDebounce)

	snap := s.Snapshot()
	if snap.State != StateHint {
		t.Fatalf("expected hint state, got %q", snap.State)
	}
	if snap.Message != MsgTypeMore {
		t.Fatalf("expected %q, got %q", MsgTypeMore, snap.Message)
	}
	if resolver.callCount() != 0 {
		t.Fatalf("expected no fetch below the minimum length")
	}
}

func TestSession_ClearedInputClosesDropdown(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.Input("")
	snap := s.Snapshot()
	if snap.State != StateClosed {
		t.Fatalf("expected closed on cleared input, got %q", snap.State)
	}
	if len(snap.Suggestions) != 0 {
		t.Fatalf("expected suggestions dropped, got %d", len(snap.Suggestions))
	}
}

func TestSession_KeyboardSelectionPicksHighlighted(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	var chosen geocode.Suggestion
	s := NewSession(resolver, SessionOptions{
		DebounceDelay: testDebounce,
		OnSelect:      func(sg geocode.Suggestion) { chosen = sg },
	})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.ArrowDown()
	s.ArrowDown()
	s.Enter()

	snap := s.Snapshot()
	if snap.State != StateClosed {
		t.Fatalf("expected dropdown closed after selection, got %q", snap.State)
	}
	if snap.Query != "San Diego, California, United States" {
		t.Fatalf("expected query set to the chosen name, got %q", snap.Query)
	}
	if chosen.ID != "2" {
		t.Fatalf("expected second suggestion selected, got %+v", chosen)
	}
	selections := resolver.selected()
	if len(selections) != 1 || selections[0].ID != "2" {
		t.Fatalf("expected selection recorded, got %+v", selections)
	}
}

func TestSession_ArrowKeysClampAtBoundaries(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	// ArrowUp from no highlight clamps at the first item.
	s.ArrowUp()
	if snap := s.Snapshot(); snap.Highlight != 0 {
		t.Fatalf("expected highlight clamped at 0, got %d", snap.Highlight)
	}

	// Holding ArrowDown must stop at the last item, not wrap.
	for i := 0; i < 10; i++ {
		s.ArrowDown()
	}
	if snap := s.Snapshot(); snap.Highlight != 2 {
		t.Fatalf("expected highlight clamped at last index, got %d", snap.Highlight)
	}
}

func TestSession_EnterWithoutHighlightDoesNothing(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.Enter()

	snap := s.Snapshot()
	if snap.State != StateResults {
		t.Fatalf("expected dropdown still open, got %q", snap.State)
	}
	if len(resolver.selected()) != 0 {
		t.Fatalf("expected no selection recorded")
	}
}

func TestSession_FailureShowsErrorThenRecovers(t *testing.T) {
	resolver := newFakeResolver()
	resolver.errs["Berlin"] = apperr.Unavailable(geocode.MsgUnavailable)
	resolver.responses["Paris"] = []geocode.Suggestion{{ID: "1", Name: "Paris, France"}}

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("Berlin")
	snap := waitForState(t, s, StateError)
	if snap.Message != geocode.MsgUnavailable {
		t.Fatalf("expected %q, got %q", geocode.MsgUnavailable, snap.Message)
	}
	if len(snap.Suggestions) != 0 {
		t.Fatalf("expected no suggestions alongside the error")
	}

	s.Input("Paris")
	snap = waitForState(t, s, StateResults)
	if snap.Message != "" {
		t.Fatalf("expected error cleared by the next success, got %q", snap.Message)
	}
	if len(snap.Suggestions) != 1 {
		t.Fatalf("expected fresh results, got %d", len(snap.Suggestions))
	}
}

func TestSession_EmptyResultShowsNoLocationsFound(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["zzzz"] = []geocode.Suggestion{}

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("zzzz")
	snap := waitForState(t, s, StateEmpty)
	if snap.Message != MsgNoResults {
		t.Fatalf("expected %q, got %q", MsgNoResults, snap.Message)
	}
}

func TestSession_StaleResponseNeverDisplaces(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["Springfield"] = []geocode.Suggestion{{ID: "old", Name: "Springfield"}}
	resolver.delays["Springfield"] = 150 * time.Millisecond
	resolver.responses["Boston"] = []geocode.Suggestion{{ID: "new", Name: "Boston, Massachusetts"}}

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("Springfield")
	time.Sleep(2 * testDebounce) // let the slow fetch start

	s.Input("Boston")
	snap := waitForState(t, s, StateResults)
	if len(snap.Suggestions) != 1 || snap.Suggestions[0].ID != "new" {
		t.Fatalf("expected newest results, got %+v", snap.Suggestions)
	}

	// The slow first response must not surface later.
	time.Sleep(200 * time.Millisecond)
	snap = s.Snapshot()
	if len(snap.Suggestions) != 1 || snap.Suggestions[0].ID != "new" {
		t.Fatalf("expected stale response discarded, got %+v", snap.Suggestions)
	}
}

func TestSession_RefreshKeepsPreviousResultsVisible(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()
	resolver.responses["San F"] = []geocode.Suggestion{{ID: "1", Name: "San Francisco, California, United States"}}
	resolver.delays["San F"] = 100 * time.Millisecond

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.Input("San F")
	time.Sleep(2 * testDebounce) // refresh in flight

	snap := s.Snapshot()
	if snap.State != StateResults || len(snap.Suggestions) != 3 {
		t.Fatalf("expected previous results shown while refreshing, got %q with %d", snap.State, len(snap.Suggestions))
	}
	if !snap.Busy {
		t.Fatalf("expected busy flag during refresh")
	}

	snap = waitForState(t, s, StateResults)
	deadline := time.Now().Add(time.Second)
	for len(snap.Suggestions) != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		snap = s.Snapshot()
	}
	if len(snap.Suggestions) != 1 {
		t.Fatalf("expected refreshed results, got %+v", snap.Suggestions)
	}
}

func TestSession_EscapeClosesDropdownKeepsQuery(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.Escape()
	snap := s.Snapshot()
	if snap.State != StateClosed {
		t.Fatalf("expected closed after Escape, got %q", snap.State)
	}
	if snap.Query != "San" {
		t.Fatalf("expected query untouched, got %q", snap.Query)
	}
}

func TestSession_OutsidePointerDownCloses(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.PointerDown(true)
	if snap := s.Snapshot(); snap.State != StateResults {
		t.Fatalf("expected inside pointer-down ignored, got %q", snap.State)
	}

	s.PointerDown(false)
	if snap := s.Snapshot(); snap.State != StateClosed {
		t.Fatalf("expected outside pointer-down to close, got %q", snap.State)
	}
}

func TestSession_EscapeDuringFetchStaysClosed(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()
	resolver.delays["San"] = 100 * time.Millisecond

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	time.Sleep(2 * testDebounce) // fetch in flight

	s.Escape()
	if snap := s.Snapshot(); snap.State != StateClosed {
		t.Fatalf("expected closed after Escape, got %q", snap.State)
	}

	// The aborted fetch must not reopen the dropdown when it resolves.
	time.Sleep(200 * time.Millisecond)
	snap := s.Snapshot()
	if snap.State != StateClosed {
		t.Fatalf("expected dropdown to stay closed, got %q", snap.State)
	}
	if snap.Busy {
		t.Fatalf("expected busy cleared by Escape")
	}
}

func TestSession_OutsideClickDuringFetchStaysClosed(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()
	resolver.delays["San"] = 100 * time.Millisecond

	s := NewSession(resolver, SessionOptions{DebounceDelay: testDebounce})
	defer s.Close()

	s.Focus()
	s.Input("San")
	time.Sleep(2 * testDebounce) // fetch in flight

	s.PointerDown(false)
	time.Sleep(200 * time.Millisecond)

	if snap := s.Snapshot(); snap.State != StateClosed {
		t.Fatalf("expected dropdown to stay closed after outside click, got %q", snap.State)
	}
}

func TestSession_BlurredFailureDoesNotReopen(t *testing.T) {
	resolver := newFakeResolver()
	resolver.errs["Berlin"] = apperr.Unavailable(geocode.MsgUnavailable)
	resolver.delays["Berlin"] = 100 * time.Millisecond
	resolver.ignoreCtx = true

	s := NewSession(resolver, SessionOptions{
		DebounceDelay: testDebounce,
		BlurDelay:     10 * time.Millisecond,
	})
	defer s.Close()

	s.Focus()
	s.Input("Berlin")
	time.Sleep(2 * testDebounce) // fetch in flight
	s.Blur()
	waitForState(t, s, StateClosed)

	// The failing fetch resolves after the blur close; the error must not
	// pop the dropdown open on a blurred session.
	time.Sleep(200 * time.Millisecond)
	snap := s.Snapshot()
	if snap.State != StateClosed {
		t.Fatalf("expected dropdown to stay closed, got %q", snap.State)
	}
	if snap.Message != "" {
		t.Fatalf("expected no error message while closed, got %q", snap.Message)
	}
}

func TestSession_BlurClosesAfterDelay(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{
		DebounceDelay: testDebounce,
		BlurDelay:     40 * time.Millisecond,
	})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.Blur()
	// Still open inside the grace window.
	if snap := s.Snapshot(); snap.State != StateResults {
		t.Fatalf("expected dropdown open during blur grace, got %q", snap.State)
	}

	waitForState(t, s, StateClosed)
}

func TestSession_SelectionDuringBlurGraceLands(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{
		DebounceDelay: testDebounce,
		BlurDelay:     60 * time.Millisecond,
	})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	// Clicking an option blurs the input first; the pointer lands inside,
	// then the click selects. The blur timer must not eat the selection.
	s.Blur()
	s.PointerDown(true)
	s.Select(0)

	snap := s.Snapshot()
	if snap.Query != "San Francisco, California, United States" {
		t.Fatalf("expected selection to land, got query %q", snap.Query)
	}
	selections := resolver.selected()
	if len(selections) != 1 || selections[0].ID != "1" {
		t.Fatalf("expected selection recorded, got %+v", selections)
	}
}

func TestSession_FocusReopensCachedResults(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()

	s := NewSession(resolver, SessionOptions{
		DebounceDelay: testDebounce,
		BlurDelay:     10 * time.Millisecond,
	})
	defer s.Close()

	s.Focus()
	s.Input("San")
	waitForState(t, s, StateResults)

	s.Blur()
	waitForState(t, s, StateClosed)

	s.Focus()
	snap := s.Snapshot()
	if snap.State != StateResults {
		t.Fatalf("expected cached results reopened on focus, got %q", snap.State)
	}
	if resolver.callCount() != 1 {
		t.Fatalf("expected no refetch on focus, got %d calls", resolver.callCount())
	}
}

func TestSession_CloseSilencesLateCompletions(t *testing.T) {
	resolver := newFakeResolver()
	resolver.responses["San"] = sanResults()
	resolver.delays["San"] = 50 * time.Millisecond

	var mu sync.Mutex
	var emitted []Snapshot
	s := NewSession(resolver, SessionOptions{
		DebounceDelay: testDebounce,
		OnChange: func(snap Snapshot) {
			mu.Lock()
			emitted = append(emitted, snap)
			mu.Unlock()
		},
	})

	s.Focus()
	s.Input("San")
	time.Sleep(2 * testDebounce) // fetch in flight
	s.Close()

	mu.Lock()
	before := len(emitted)
	mu.Unlock()

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	after := len(emitted)
	mu.Unlock()
	if after != before {
		t.Fatalf("expected no snapshots after Close, got %d more", after-before)
	}
}
