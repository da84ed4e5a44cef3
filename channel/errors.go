package channel

import "errors"

// Sentinel errors returned by the channel.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid channel configuration")

	// ErrClosed is returned when operating on a torn-down channel.
	ErrClosed = errors.New("channel closed")

	// ErrQueueFull is returned when an outbound payload cannot be queued
	// while disconnected.
	ErrQueueFull = errors.New("outbound queue full")

	// ErrUnknownTopic is returned when sending to a topic that was never
	// subscribed.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrNoAvailableShard is returned when every shard index of a round is
	// already claimed by another editor.
	ErrNoAvailableShard = errors.New("no available shard index")

	// ErrNotClaimed is returned when releasing a shard that was never
	// claimed.
	ErrNotClaimed = errors.New("shard index not claimed")
)
