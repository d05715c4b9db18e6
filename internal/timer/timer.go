// Package timer provides the cancellable delayed calls used for debounced
// note edits and the save indicator.
package timer

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled call.
type Stopper interface {
	Stop() bool
}

// Clock abstracts wall time so delays can be shortened in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Stopper
}

// RealClock is backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, fn)
}

// Debouncer collapses calls made within a quiet period into the last one.
type Debouncer struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	pending Stopper
	fn      func()
	seq     uint64
}

// NewDebouncer returns a debouncer that fires after delay of quiet.
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Schedule cancels any pending call and schedules fn.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.seq++
	seq := d.seq
	d.fn = fn
	d.pending = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a Schedule or Cancel raced with this fire
		if d.seq != seq || d.fn == nil {
			d.mu.Unlock()
			return
		}
		run := d.fn
		d.fn, d.pending = nil, nil
		d.mu.Unlock()
		run()
	})
}

// Cancel drops the pending call, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Flush runs the pending call immediately on the caller's goroutine.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	run := d.fn
	d.cancelLocked()
	d.mu.Unlock()

	if run == nil {
		return false
	}
	run()
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

func (d *Debouncer) cancelLocked() bool {
	had := d.fn != nil
	if d.pending != nil {
		d.pending.Stop()
	}
	d.seq++
	d.fn, d.pending = nil, nil
	return had
}
