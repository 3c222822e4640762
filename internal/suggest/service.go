package suggest

import (
	"context"
	"unicode/utf8"

	"roomshare_backend/internal/geocode"
	"roomshare_backend/platform/apperr"
	"roomshare_backend/platform/events"
	"roomshare_backend/platform/logger"
	"roomshare_backend/platform/sanitize"

	"golang.org/x/sync/singleflight"
)

// Service resolves queries to suggestions: sanitize, gate on minimum
// length, consult the cache, then ask the provider. Concurrent identical
// queries share one provider call via singleflight.
type Service struct {
	provider geocode.Provider
	cache    Cache
	limit    int
	flight   singleflight.Group
	bus      events.Bus
	log      *logger.Logger
}

// NewService wires the suggest service. bus may be nil in tests.
func NewService(provider geocode.Provider, cache Cache, limit int, bus events.Bus, log *logger.Logger) *Service {
	if limit <= 0 {
		limit = 5
	}
	if log == nil {
		log = logger.New("production")
	}
	return &Service{
		provider: provider,
		cache:    cache,
		limit:    limit,
		bus:      bus,
		log:      log,
	}
}

// Suggest returns suggestions for raw input. Returns a KindTooShort error
// below the minimum length (a hint, never a provider call), a KindCanceled
// error when ctx is aborted, and the geocode error taxonomy otherwise.
func (s *Service) Suggest(ctx context.Context, raw string) ([]geocode.Suggestion, error) {
	query := sanitize.Query(raw)
	if utf8.RuneCountInString(query) < MinQueryChars {
		return nil, apperr.TooShort(MsgTypeMore)
	}

	key := sanitize.NormalizeKey(query)
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.log.CacheEvent("hit", key)
		s.publishResolved(ctx, query, len(cached), true)
		return cached, nil
	}
	s.log.CacheEvent("miss", key)

	// The flight outlives any single caller: a superseded request stops
	// waiting immediately, but the fetch runs to completion and still
	// populates the cache for the next keystroke.
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		flightCtx := context.WithoutCancel(ctx)
		if cached, ok := s.cache.Get(flightCtx, key); ok {
			return cached, nil
		}
		results, err := s.provider.Search(flightCtx, query, s.limit)
		if err != nil {
			return nil, err
		}
		s.cache.Set(flightCtx, key, results)
		s.log.CacheEvent("store", key)
		return results, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperr.Wrap(apperr.KindCanceled, "request canceled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		results := res.Val.([]geocode.Suggestion)
		s.publishResolved(ctx, query, len(results), false)
		return results, nil
	}
}

// RecordSelection publishes the selection event for analytics. Selection
// itself is a client-side act; this is its server-side trace.
func (s *Service) RecordSelection(ctx context.Context, query string, chosen geocode.Suggestion) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, SuggestionSelected{
		BaseEvent: events.NewBaseEvent(),
		Query:     sanitize.NormalizeKey(query),
		Name:      chosen.Name,
		Lat:       chosen.Lat,
		Lng:       chosen.Lng,
	})
}

// ClearCache is the explicit process-wide cache reset.
func (s *Service) ClearCache(ctx context.Context) error {
	err := s.cache.Clear(ctx)
	if err == nil {
		s.log.CacheEvent("clear", "*")
	}
	return err
}

func (s *Service) publishResolved(ctx context.Context, query string, results int, cacheHit bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, QueryResolved{
		BaseEvent: events.NewBaseEvent(),
		Query:     sanitize.NormalizeKey(query),
		Results:   results,
		CacheHit:  cacheHit,
	})
}
