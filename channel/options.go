package channel

import (
	"github.com/nats-io/nats.go"

	"github.com/Antigravity-finder/tabbycat/types"
)

// DialFunc dials a NATS server. Injectable for tests.
type DialFunc func(url string, opts ...nats.Option) (*nats.Conn, error)

// Option configures a Channel with optional dependencies.
type Option func(*channelOptions)

type channelOptions struct {
	logger      types.Logger
	metrics     types.MetricsCollector
	hooks       *types.Hooks
	clock       types.Clock
	dial        DialFunc
	componentID int64
	hasComponID bool
}

// WithLogger sets a logger.
func WithLogger(logger types.Logger) Option {
	return func(o *channelOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
func WithMetrics(collector types.MetricsCollector) Option {
	return func(o *channelOptions) {
		o.metrics = collector
	}
}

// WithHooks sets presentation-layer event hooks.
//
// Example:
//
//	hooks := &types.Hooks{
//	    OnConnectionLost: func(losses int) { showLostBanner() },
//	}
//	ch, err := channel.New(cfg, channel.WithHooks(hooks))
func WithHooks(hooks *types.Hooks) Option {
	return func(o *channelOptions) {
		o.hooks = hooks
	}
}

// WithClock injects the scheduler clock. Tests pass a virtual clock to drive
// reconnect backoff deterministically.
func WithClock(clk types.Clock) Option {
	return func(o *channelOptions) {
		o.clock = clk
	}
}

// WithDialer injects the dial function used for every connection attempt.
func WithDialer(dial DialFunc) Option {
	return func(o *channelOptions) {
		o.dial = dial
	}
}

// WithComponentID fixes the per-session component id instead of generating a
// random one. Tests use this to assert echo suppression.
func WithComponentID(id int64) Option {
	return func(o *channelOptions) {
		o.componentID = id
		o.hasComponID = true
	}
}
