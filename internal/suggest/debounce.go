package suggest

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is how long input must stay quiet before a settled
// value fires.
const DefaultDebounceDelay = 300 * time.Millisecond

// Debouncer delivers a value to its callback once the value has been
// stable for the configured delay. Every Update restarts the timer.
// While an IME composition is active (CompositionStart..CompositionEnd)
// no timer runs and nothing fires; composition end begins a fresh cycle
// from the finalized value.
//
// The timer, pending value, and composition flag are explicit fields
// guarded by one mutex, so "which value fires" is always the latest
// pending value rather than whatever a closure happened to capture.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	timer     *time.Timer
	pending   string
	composing bool
	stopped   bool
	fire      func(value string)
}

// NewDebouncer creates a debouncer that calls fire with each settled value.
// fire runs on a timer goroutine; callers synchronize their own state.
func NewDebouncer(delay time.Duration, fire func(value string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{delay: delay, fire: fire}
}

// Update records a new value and restarts the quiet-period timer.
// Suppressed during composition; the value is still recorded so the
// composition-end cycle starts from the latest text.
func (d *Debouncer) Update(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = value
	if d.composing || d.stopped {
		return
	}
	d.restartLocked()
}

// CompositionStart suppresses the debouncer until CompositionEnd.
func (d *Debouncer) CompositionStart() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.composing = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// CompositionEnd finalizes the composed value and starts one fresh cycle.
func (d *Debouncer) CompositionEnd(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.composing = false
	d.pending = value
	if d.stopped {
		return
	}
	d.restartLocked()
}

// Stop releases the timer. No value fires after Stop returns the lock.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) restartLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.onTimer)
}

func (d *Debouncer) onTimer() {
	d.mu.Lock()
	if d.stopped || d.composing {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.mu.Unlock()

	d.fire(value)
}
