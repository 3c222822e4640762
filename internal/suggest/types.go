// Package suggest implements the location-suggest core: query
// normalization, debouncing, request coordination with staleness guards,
// a bounded suggestion cache, and the dropdown session state machine that
// the marketplace front end drives over the API.
package suggest

import "roomshare_backend/internal/geocode"

// MinQueryChars is the minimum normalized query length that triggers a
// provider request. Shorter input renders a hint, not a loading state.
const MinQueryChars = 2

// MsgTypeMore is the hint shown below the minimum query length.
const MsgTypeMore = "Type at least 2 characters"

// MsgNoResults is shown when a query resolves to zero suggestions.
const MsgNoResults = "No locations found"

// State is the dropdown/focus state of a suggest session.
type State string

const (
	// StateClosed means the dropdown is not visible.
	StateClosed State = "closed"
	// StateHint means the dropdown shows the type-more hint.
	StateHint State = "open-hint"
	// StateLoading means a fetch is in flight with nothing to show yet.
	StateLoading State = "open-loading"
	// StateResults means suggestions are displayed.
	StateResults State = "open-results"
	// StateError means the last fetch failed and the error is displayed.
	StateError State = "open-error"
	// StateEmpty means the last fetch succeeded with zero suggestions.
	StateEmpty State = "open-empty"
)

// Snapshot is an immutable view of a session, emitted on every transition.
// Exactly one of Suggestions and Message is meaningful per completed
// request cycle. Busy mirrors the in-flight fetch (the aria-busy contract).
type Snapshot struct {
	State       State
	Query       string
	Suggestions []geocode.Suggestion
	// Highlight is the keyboard cursor index, -1 when nothing is highlighted.
	Highlight int
	Message   string
	Busy      bool
}
