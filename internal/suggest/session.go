package suggest

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"roomshare_backend/internal/geocode"
	"roomshare_backend/platform/apperr"
	"roomshare_backend/platform/sanitize"
)

// DefaultBlurDelay is how long a blur waits before closing the dropdown,
// long enough for a click on a dropdown option (which itself blurs the
// input) to land first.
const DefaultBlurDelay = 180 * time.Millisecond

// SessionOptions configures a suggest session.
type SessionOptions struct {
	// DebounceDelay defaults to DefaultDebounceDelay.
	DebounceDelay time.Duration
	// BlurDelay defaults to DefaultBlurDelay.
	BlurDelay time.Duration
	// OnChange receives a snapshot after every state transition.
	OnChange func(Snapshot)
	// OnSelect receives the chosen suggestion.
	OnSelect func(geocode.Suggestion)
}

// Session is the dropdown/focus state machine for one autocomplete input.
// Callers feed it the input's events (Input, Focus, Blur, keys, pointer)
// and observe transitions through OnChange. Fetches are debounced,
// coordinated, and staleness-guarded; a superseded or canceled fetch never
// touches visible state. Safe for concurrent use. Close releases the
// debounce and blur timers and aborts any in-flight fetch.
type Session struct {
	svc      Resolver
	onChange func(Snapshot)
	onSelect func(geocode.Suggestion)

	deb       *Debouncer
	coord     *Coordinator
	blurDelay time.Duration

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu          sync.Mutex
	query       string
	suggestions []geocode.Suggestion
	highlight   int
	message     string
	state       State
	focused     bool
	busy        bool
	blurTimer   *time.Timer
	closed      bool
}

// Resolver is the narrow service surface a session needs.
type Resolver interface {
	Suggest(ctx context.Context, raw string) ([]geocode.Suggestion, error)
	RecordSelection(ctx context.Context, query string, chosen geocode.Suggestion)
}

// NewSession creates a session bound to the suggest service.
func NewSession(svc Resolver, opts SessionOptions) *Session {
	if opts.BlurDelay <= 0 {
		opts.BlurDelay = DefaultBlurDelay
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	s := &Session{
		svc:        svc,
		blurDelay:  opts.BlurDelay,
		onChange:   opts.OnChange,
		onSelect:   opts.OnSelect,
		coord:      &Coordinator{},
		baseCtx:    baseCtx,
		cancelBase: cancelBase,
		highlight:  -1,
		state:      StateClosed,
	}
	s.deb = NewDebouncer(opts.DebounceDelay, s.onSettled)
	return s
}

// Input records a new text value, as typed. Short input cancels any
// in-flight fetch and shows the hint instead of a loading state.
func (s *Session) Input(text string) {
	s.deb.Update(text)

	s.mu.Lock()
	s.query = text
	normalized := sanitize.Query(text)
	if utf8.RuneCountInString(normalized) < MinQueryChars {
		s.coord.CancelActive()
		s.busy = false
		s.suggestions = nil
		s.highlight = -1
		if s.focused && normalized != "" {
			s.state = StateHint
			s.message = MsgTypeMore
		} else {
			s.state = StateClosed
			s.message = ""
		}
	}
	s.notifyLocked()
}

// CompositionStart suppresses debouncing while an IME composes.
func (s *Session) CompositionStart() {
	s.deb.CompositionStart()
}

// CompositionEnd commits the composed text and starts one debounce cycle.
func (s *Session) CompositionEnd(text string) {
	s.mu.Lock()
	s.query = text
	s.mu.Unlock()
	s.deb.CompositionEnd(text)
}

// Focus opens the dropdown immediately when cached suggestions exist;
// otherwise the dropdown stays closed until a debounce settles.
func (s *Session) Focus() {
	s.mu.Lock()
	s.focused = true
	s.stopBlurTimerLocked()
	if len(s.suggestions) > 0 {
		s.state = StateResults
	}
	s.notifyLocked()
}

// Blur schedules a delayed close so an option click can land first.
func (s *Session) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopBlurTimerLocked()
	s.blurTimer = time.AfterFunc(s.blurDelay, s.onBlurElapsed)
}

func (s *Session) onBlurElapsed() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.focused = false
	s.coord.CancelActive()
	s.busy = false
	s.closeDropdownLocked()
	s.notifyLocked()
}

// Escape closes the dropdown without clearing focus. Closing aborts the
// in-flight fetch; a late resolution must not reopen the dropdown.
func (s *Session) Escape() {
	s.mu.Lock()
	s.coord.CancelActive()
	s.busy = false
	s.closeDropdownLocked()
	s.notifyLocked()
}

// PointerDown reports a document-level pointer-down. Outside the
// component's subtree it closes the dropdown; inside the open listbox it
// is left alone (selecting an option is not "outside") and any pending
// blur close is canceled.
func (s *Session) PointerDown(inside bool) {
	s.mu.Lock()
	if inside {
		s.stopBlurTimerLocked()
		s.mu.Unlock()
		return
	}
	s.coord.CancelActive()
	s.busy = false
	s.closeDropdownLocked()
	s.notifyLocked()
}

// ArrowDown moves the highlight cursor down, clamping at the last item.
func (s *Session) ArrowDown() {
	s.moveHighlight(1)
}

// ArrowUp moves the highlight cursor up, clamping at the first item.
func (s *Session) ArrowUp() {
	s.moveHighlight(-1)
}

func (s *Session) moveHighlight(delta int) {
	s.mu.Lock()
	if s.state != StateResults || len(s.suggestions) == 0 {
		s.mu.Unlock()
		return
	}

	// Clamp at the boundaries rather than wrapping; holding ArrowDown
	// must not jump back to the top.
	next := s.highlight + delta
	if next < 0 {
		next = 0
	}
	if next > len(s.suggestions)-1 {
		next = len(s.suggestions) - 1
	}
	s.highlight = next
	s.notifyLocked()
}

// Enter selects the highlighted suggestion, if any.
func (s *Session) Enter() {
	s.mu.Lock()
	if s.state != StateResults || s.highlight < 0 || s.highlight >= len(s.suggestions) {
		s.mu.Unlock()
		return
	}
	index := s.highlight
	s.mu.Unlock()

	s.Select(index)
}

// Select chooses the suggestion at index, mirroring an option click:
// the selection callback fires, the text value becomes the suggestion
// name, the dropdown closes, and any in-flight fetch is discarded.
func (s *Session) Select(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.suggestions) {
		s.mu.Unlock()
		return
	}
	chosen := s.suggestions[index]
	query := s.query

	s.coord.CancelActive()
	s.busy = false
	s.query = chosen.Name
	s.closeDropdownLocked()
	callback := s.onSelect
	s.notifyLocked()

	s.svc.RecordSelection(s.baseCtx, query, chosen)
	if callback != nil {
		callback(chosen)
	}
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close tears the session down: timers released, in-flight fetch aborted.
// The session emits no further snapshots.
func (s *Session) Close() {
	s.deb.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.stopBlurTimerLocked()
	s.coord.CancelActive()
	s.cancelBase()
}

// onSettled runs when the debouncer delivers a quiet value.
func (s *Session) onSettled(value string) {
	normalized := sanitize.Query(value)
	if utf8.RuneCountInString(normalized) < MinQueryChars {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx, seq := s.coord.Begin(s.baseCtx)
	s.busy = true
	if s.focused {
		if len(s.suggestions) > 0 {
			// Keep showing the previous results while refreshing.
			s.state = StateResults
		} else {
			s.state = StateLoading
			s.message = ""
		}
	}
	s.notifyLocked()

	go s.fetch(ctx, seq, value)
}

func (s *Session) fetch(ctx context.Context, seq uint64, value string) {
	results, err := s.svc.Suggest(ctx, value)

	s.mu.Lock()
	if s.closed || !s.coord.Current(seq) {
		// A newer request superseded this one; its outcome is invisible.
		s.mu.Unlock()
		return
	}
	s.busy = false

	switch {
	case err != nil && apperr.Is(err, apperr.KindCanceled):
		// Aborted fetches are silent: not an error, not a result.
		s.mu.Unlock()
		return
	case err != nil && apperr.Is(err, apperr.KindTooShort):
		s.suggestions = nil
		s.highlight = -1
		if s.focused {
			s.state = StateHint
			s.message = MsgTypeMore
		}
	case err != nil:
		s.suggestions = nil
		s.highlight = -1
		if s.focused {
			s.state = StateError
			s.message = userMessage(err)
		}
	case len(results) == 0:
		s.suggestions = nil
		s.highlight = -1
		if s.focused {
			s.state = StateEmpty
			s.message = MsgNoResults
		}
	default:
		s.suggestions = results
		s.highlight = -1
		s.message = ""
		if s.focused {
			s.state = StateResults
		}
	}
	s.notifyLocked()
}

func userMessage(err error) string {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr.Message
	}
	return geocode.MsgFetchFailed
}

func (s *Session) closeDropdownLocked() {
	s.state = StateClosed
	s.highlight = -1
	s.message = ""
}

func (s *Session) stopBlurTimerLocked() {
	if s.blurTimer != nil {
		s.blurTimer.Stop()
		s.blurTimer = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:       s.state,
		Query:       s.query,
		Suggestions: append([]geocode.Suggestion(nil), s.suggestions...),
		Highlight:   s.highlight,
		Message:     s.message,
		Busy:        s.busy,
	}
}

// notifyLocked emits a snapshot and releases the lock. The callback runs
// unlocked so observers may call back into the session.
func (s *Session) notifyLocked() {
	if s.closed || s.onChange == nil {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	callback := s.onChange
	s.mu.Unlock()

	callback(snapshot)
}
