package suggest

import "roomshare_backend/platform/events"

// Event names published by the suggest service.
const (
	EventQueryResolved      = "suggest.query_resolved"
	EventSuggestionSelected = "suggest.suggestion_selected"
)

// QueryResolved fires when a query produced suggestions, from cache or
// from a provider call.
type QueryResolved struct {
	events.BaseEvent
	Query    string
	Results  int
	CacheHit bool
}

// EventName implements events.Event.
func (QueryResolved) EventName() string { return EventQueryResolved }

// SuggestionSelected fires when a user picks a suggestion.
type SuggestionSelected struct {
	events.BaseEvent
	Query string
	Name  string
	Lat   float64
	Lng   float64
}

// EventName implements events.Event.
func (SuggestionSelected) EventName() string { return EventSuggestionSelected }
