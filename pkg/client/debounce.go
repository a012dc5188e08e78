package client

import (
	"sync"
	"time"
)

// DefaultSearchDelay is the idle period before pending search text commits.
const DefaultSearchDelay = 500 * time.Millisecond

// SearchDebouncer turns a stream of keystrokes into committed search terms.
// Every keystroke restarts the idle timer; on expiry the pending text is
// committed exactly once.
type SearchDebouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending string
	commit  func(text string)
}

// NewSearchDebouncer constructs a debouncer. A non-positive delay falls back
// to DefaultSearchDelay.
func NewSearchDebouncer(delay time.Duration, commit func(string)) *SearchDebouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &SearchDebouncer{delay: delay, commit: commit}
}

// Type registers a keystroke and restarts the idle timer.
func (d *SearchDebouncer) Type(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush commits any pending text immediately.
func (d *SearchDebouncer) Flush() {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	d.fire()
}

// Stop cancels a pending commit without firing it.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *SearchDebouncer) fire() {
	d.mu.Lock()
	text := d.pending
	d.timer = nil
	d.mu.Unlock()
	if d.commit != nil {
		d.commit(text)
	}
}
