package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Channel methods are called from NATS callback goroutines and must be
// thread-safe.
//
// This interface composes smaller, domain-focused interfaces.
type MetricsCollector interface {
	ChannelMetrics
	StoreMetrics
}

// ChannelMetrics defines metrics for sync channel operations.
type ChannelMetrics interface {
	// RecordConnectionState records a connection state transition.
	RecordConnectionState(state ConnState)

	// RecordReconnectDelay records a scheduled reconnect backoff delay.
	//
	// Parameters:
	//   - seconds: Delay duration in seconds
	RecordReconnectDelay(seconds float64)

	// RecordMessage records one processed message.
	//
	// Parameters:
	//   - direction: "inbound" or "outbound"
	//   - kind: Message kind ("diff", "action", "error", "banner")
	RecordMessage(direction, kind string)

	// RecordDiscard records an inbound message dropped before apply.
	//
	// Parameters:
	//   - reason: Why it was dropped ("echo", "duplicate", "malformed",
	//     "foreign_error")
	RecordDiscard(reason string)
}

// StoreMetrics defines metrics for allocation store operations.
type StoreMetrics interface {
	// RecordDiffApplied records a batch of applied diffs.
	//
	// Parameters:
	//   - kind: "unit" or "item"
	//   - count: Number of entries in the batch
	RecordDiffApplied(kind string, count int)

	// RecordSortRecompute records a sort-index recomputation.
	//
	// Parameters:
	//   - mode: Ranking mode used
	//   - seconds: Time taken in seconds
	RecordSortRecompute(mode string, seconds float64)
}
