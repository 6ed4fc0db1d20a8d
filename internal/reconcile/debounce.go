package reconcile

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of change notifications into a single callback
// fired after a quiet period. Every Trigger restarts the timer, so a steady
// stream of changes defers the callback rather than queueing one per change.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	onQuiet func()
	stopped bool
}

// NewDebouncer creates a debouncer that invokes onQuiet once no Trigger has
// arrived for delay.
func NewDebouncer(delay time.Duration, onQuiet func()) *Debouncer {
	return &Debouncer{delay: delay, onQuiet: onQuiet}
}

// Trigger notes a change and restarts the quiet timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && d.onQuiet != nil {
		d.onQuiet()
	}
}

// Stop cancels any pending callback. Further Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
