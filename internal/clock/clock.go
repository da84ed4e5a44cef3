// Package clock provides wall-clock and virtual implementations of
// types.Clock, so the channel's reconnect state machine can be unit-tested
// without real waiting.
package clock

import (
	"sync"
	"time"

	"github.com/Antigravity-finder/tabbycat/types"
)

// Real is the wall-clock implementation.
type Real struct{}

var _ types.Clock = Real{}

// NewReal returns the wall-clock implementation.
func NewReal() Real { return Real{} }

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// AfterFunc delegates to time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) types.Timer {
	return time.AfterFunc(d, f)
}

// Fake is a virtual clock for tests. Time only moves through Advance, which
// fires due timers synchronously on the calling goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

var _ types.Clock = (*Fake)(nil)

// NewFake returns a virtual clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the virtual current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

// AfterFunc schedules fn to fire when the virtual clock reaches now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) types.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{clock: f, when: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)

	return t
}

// Advance moves the virtual clock forward and fires every timer that becomes
// due, in scheduling order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	var due []*fakeTimer
	var remaining []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.when.After(f.now) {
			due = append(due, t)
		} else if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	f.timers = remaining
	f.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// PendingTimers returns the number of scheduled, unfired timers.
func (f *Fake) PendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.timers {
		if !t.stopped {
			n++
		}
	}

	return n
}

type fakeTimer struct {
	clock   *Fake
	when    time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true

	return true
}
