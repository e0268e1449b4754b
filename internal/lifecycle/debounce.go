package lifecycle

import (
	"sync"
	"time"
)

// Debouncer runs a function once a burst of Touch calls has been quiet for
// the settle delay. Association, DHCP and link-up usually arrive as several
// changes within a second; only the last one should trigger a decision.
type Debouncer struct {
	delay   time.Duration
	fn      func()
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer calling fn after delay. A zero delay
// calls fn synchronously on every Touch.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Touch records activity and restarts the settle delay.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if d.delay <= 0 {
		d.mu.Unlock()
		d.fn()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
	d.mu.Unlock()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending call. Later Touch calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
