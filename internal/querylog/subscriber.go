package querylog

import (
	"context"
	"fmt"

	"roomshare_backend/internal/suggest"
	"roomshare_backend/platform/events"
)

// Subscriber feeds the popularity counters from suggest domain events.
type Subscriber struct {
	repo *Repository
}

// NewSubscriber creates a querylog event subscriber.
func NewSubscriber(repo *Repository) *Subscriber {
	return &Subscriber{repo: repo}
}

// Register attaches the subscriber to the event bus.
func (s *Subscriber) Register(bus events.Bus) {
	bus.Subscribe(suggest.EventQueryResolved, events.HandlerFunc(s.onQueryResolved))
	bus.Subscribe(suggest.EventSuggestionSelected, events.HandlerFunc(s.onSuggestionSelected))
}

func (s *Subscriber) onQueryResolved(ctx context.Context, event events.Event) error {
	resolved, ok := event.(suggest.QueryResolved)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.EventName())
	}
	// Cache hits count too; popularity is about demand, not provider load.
	return s.repo.RecordResolved(ctx, resolved.Query)
}

func (s *Subscriber) onSuggestionSelected(ctx context.Context, event events.Event) error {
	selected, ok := event.(suggest.SuggestionSelected)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.EventName())
	}
	return s.repo.RecordSelected(ctx, selected.Query)
}
