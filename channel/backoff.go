package channel

import "time"

// nextDelay computes the reconnect delay following prev.
//
// Behavior:
//   - prev <= 0 starts from the floor
//   - otherwise next = prev * growth, clamped to the ceiling
//   - growth < 1.0 falls back to 1.0 (no shrinking)
//   - ceiling < floor returns the floor
//
// The growth is deterministic: reconnects here race against human operators
// refreshing a page, not against a thundering herd, so jitter buys nothing.
func nextDelay(prev, floor time.Duration, growth float64, ceiling time.Duration) time.Duration {
	if floor <= 0 {
		floor = time.Second
	}
	if growth < 1.0 {
		growth = 1.0
	}
	if ceiling < floor {
		return floor
	}

	if prev <= 0 {
		return floor
	}

	next := time.Duration(float64(prev) * growth)
	if next > ceiling {
		return ceiling
	}
	if next < floor {
		return floor
	}

	return next
}
