package tabbycat

import (
	"github.com/Antigravity-finder/tabbycat/channel"
	"github.com/Antigravity-finder/tabbycat/types"
)

// Option configures a Controller with optional dependencies.
type Option func(*controllerOptions)

// controllerOptions holds optional dependencies for the Controller.
type controllerOptions struct {
	logger      types.Logger
	metrics     types.MetricsCollector
	hooks       *types.Hooks
	clock       types.Clock
	dial        channel.DialFunc
	componentID int64
	hasComponID bool
}

// WithLogger sets the logger used by the controller, the store, and the
// channel.
//
// Parameters:
//   - logger: Logger implementation
//
// Example:
//
//	ctrl, err := tabbycat.New(cfg, tabbycat.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger types.Logger) Option {
	return func(o *controllerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector. Defaults to a no-op collector.
func WithMetrics(collector types.MetricsCollector) Option {
	return func(o *controllerOptions) {
		o.metrics = collector
	}
}

// WithHooks sets callbacks for connection events, server banners, stale-view
// detection, and loading-state changes.
func WithHooks(hooks *types.Hooks) Option {
	return func(o *controllerOptions) {
		o.hooks = hooks
	}
}

// WithClock injects the scheduler clock used for reconnect backoff. Tests
// pass a virtual clock to drive reconnection deterministically.
func WithClock(clk types.Clock) Option {
	return func(o *controllerOptions) {
		o.clock = clk
	}
}

// WithDialer injects the channel's dial function. Test-only seam.
func WithDialer(dial channel.DialFunc) Option {
	return func(o *controllerOptions) {
		o.dial = dial
	}
}

// WithComponentID fixes the per-session component id instead of drawing one
// at random. Used by tests that assert echo suppression.
func WithComponentID(id int64) Option {
	return func(o *controllerOptions) {
		o.componentID = id
		o.hasComponID = true
	}
}
