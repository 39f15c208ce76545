package manager

import (
	"sync"
	"time"
)

const defaultDebounceDelay = 300 * time.Millisecond

// Debouncer delays work until input has been quiet for a window, and
// hands each invocation a sequence number so callbacks racing with
// newer input can tell they have been superseded.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = defaultDebounceDelay
	}
	return &Debouncer{delay: delay}
}

// Do schedules fn after the quiet period, cancelling any pending
// schedule. fn receives its sequence number; compare it with Current
// before acting on the result.
func (d *Debouncer) Do(fn func(seq uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { fn(seq) })
}

// Current returns the latest sequence number. A callback whose own
// number is older has been superseded and should discard its result.
func (d *Debouncer) Current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Cancel stops any pending callback without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
