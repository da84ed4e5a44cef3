package types

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. Reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

// Clock schedules callbacks and reads the current time. The reconnect state
// machine takes a Clock so tests can drive backoff with a virtual clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs f in its own goroutine after d elapses.
	AfterFunc(d time.Duration, f func()) Timer
}
