package channel

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"

	"github.com/Antigravity-finder/tabbycat/internal/clock"
	"github.com/Antigravity-finder/tabbycat/internal/logging"
	"github.com/Antigravity-finder/tabbycat/internal/metrics"
	"github.com/Antigravity-finder/tabbycat/types"
)

// ReceiveFunc handles one inbound, already-parsed broadcast that passed echo
// suppression. Called from the connection's callback goroutine; diffs arrive
// in the order the subscription received them.
type ReceiveFunc func(topic string, env *types.Envelope)

// subscription is one logical (topic, round) subscription.
type subscription struct {
	topic   string
	subject string
	handler ReceiveFunc

	mu         sync.Mutex
	natsSub    *nats.Subscription
	lastDigest uint64
	hasDigest  bool
}

// Channel maintains the logical connection for one editing view and all of
// its topic subscriptions.
//
// Lifecycle: New → Connect → Subscribe/Send → Close. After an unexpected
// connection loss the channel reconnects on its own with exponential backoff;
// Close cancels any pending reconnect timer and is terminal.
type Channel struct {
	cfg Config

	componentID int64
	sessionID   string

	logger  types.Logger
	metrics types.MetricsCollector
	hooks   *types.Hooks
	clk     types.Clock
	dial    DialFunc

	subs *xsync.Map[string, *subscription]

	mu     sync.Mutex
	conn   *nats.Conn
	state  types.ConnState
	losses int
	delay  time.Duration
	retry  types.Timer
	queue  []outbound
	closed bool
}

type outbound struct {
	subject string
	data    []byte
}

// New creates a channel for the configured round.
//
// The per-session component id used for self-echo suppression is drawn at
// random unless fixed via WithComponentID.
//
// Parameters:
//   - cfg: Channel configuration (defaults applied, then validated)
//   - opts: Optional dependencies (logger, metrics, hooks, clock, dialer)
//
// Returns:
//   - *Channel: Channel ready for Connect
//   - error: Configuration error
//
// Example:
//
//	ch, err := channel.New(channel.Config{
//	    URL:            nats.DefaultURL,
//	    TournamentSlug: "australs2025",
//	    RoundSlug:      "3",
//	}, channel.WithLogger(logger))
func New(cfg Config, opts ...Option) (*Channel, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := channelOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.clock == nil {
		options.clock = clock.NewReal()
	}
	if options.dial == nil {
		options.dial = func(url string, dialOpts ...nats.Option) (*nats.Conn, error) {
			return nats.Connect(url, dialOpts...)
		}
	}
	if !options.hasComponID {
		options.componentID = rand.Int64N(10000) //nolint:gosec // non-crypto session tag
	}

	return &Channel{
		cfg:         cfg,
		componentID: options.componentID,
		sessionID:   uuid.NewString(),
		logger:      options.logger,
		metrics:     options.metrics,
		hooks:       options.hooks,
		clk:         options.clock,
		dial:        options.dial,
		subs:        xsync.NewMap[string, *subscription](),
		state:       types.StateConnecting,
	}, nil
}

// ComponentID returns the per-session component id tagged onto every
// outbound payload.
func (c *Channel) ComponentID() int64 { return c.componentID }

// SessionID returns the session uuid used in claim values and log fields.
func (c *Channel) SessionID() string { return c.sessionID }

// Conn returns the underlying NATS connection, or nil while disconnected.
// Used to share the connection with the shard claimer.
func (c *Channel) Conn() *nats.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn
}

// State returns the current connection state.
func (c *Channel) State() types.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Losses returns how many times the connection has been lost.
func (c *Channel) Losses() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.losses
}

// Connect performs the initial dial. On failure the channel records a loss
// and schedules reconnection on its own; the error is returned so the caller
// can surface it, but no manual retry is needed.
func (c *Channel) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.setStateLocked(types.StateConnecting)
	c.mu.Unlock()

	if err := c.establish(); err != nil {
		c.connectionLost(err)
		return fmt.Errorf("initial connect: %w", err)
	}

	return nil
}

// Subscribe registers a handler for one topic label. The NATS subscription is
// installed immediately when the connection is open, or on the next
// successful (re)connect otherwise.
//
// Parameters:
//   - topic: Topic label, e.g. "debates" or "panels"
//   - handler: Inbound broadcast handler
//
// Returns:
//   - error: ErrClosed after teardown, or subscription error
func (c *Channel) Subscribe(topic string, handler ReceiveFunc) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	sub := &subscription{topic: topic, subject: c.cfg.subjectFor(topic), handler: handler}
	c.subs.Store(topic, sub)
	conn := c.conn
	open := c.state == types.StateOpen
	c.mu.Unlock()

	if open && conn != nil {
		return c.install(conn, sub)
	}

	return nil
}

// Send transmits one envelope on a topic, tagging it with this session's
// component id. While disconnected the payload is queued (bounded) and
// flushed on the next successful connect.
//
// Parameters:
//   - topic: Subscribed topic label
//   - env: Envelope to transmit (ComponentID is overwritten)
//
// Returns:
//   - error: ErrUnknownTopic, ErrQueueFull, ErrClosed, or publish error
func (c *Channel) Send(topic string, env *types.Envelope) error {
	sub, ok := c.subs.Load(topic)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	env.ComponentID = c.componentID
	env.HasComponentID = true
	data, err := env.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	kind := "diff"
	if env.Action != "" {
		kind = "action"
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != types.StateOpen || c.conn == nil {
		if len(c.queue) >= c.cfg.SendQueueLimit {
			c.mu.Unlock()
			return ErrQueueFull
		}
		c.queue = append(c.queue, outbound{subject: sub.subject, data: data})
		c.mu.Unlock()
		c.logger.Debug("send queued while disconnected", "topic", topic, "queued", true)

		return nil
	}
	conn := c.conn
	c.mu.Unlock()

	if err := conn.Publish(sub.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", sub.subject, err)
	}
	c.metrics.RecordMessage("outbound", kind)

	return nil
}

// SendAction transmits an action-trigger message for a server-computed
// operation, e.g. an automated allocation run. Completion is observed as a
// subsequent state diff plus a loading-flag reset.
func (c *Channel) SendAction(topic, action string, settings map[string]any) error {
	return c.Send(topic, &types.Envelope{Action: action, Settings: settings})
}

// Close tears down the channel: pending reconnect timers are cancelled so no
// stale reconnect fires after teardown, subscriptions are dropped, and the
// connection is closed. Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.setStateLocked(types.StateTerminated)
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	conn := c.conn
	c.conn = nil
	c.queue = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.logger.Info("channel closed", "session_id", c.sessionID)
}

// establish dials and installs a connection plus all registered
// subscriptions, then flushes the queued sends.
func (c *Channel) establish() error {
	conn, err := c.dial(c.cfg.serverURL(),
		nats.Timeout(c.cfg.ConnectTimeout),
		nats.NoReconnect(),
		nats.ClosedHandler(func(*nats.Conn) {
			c.connectionLost(nil)
		}),
	)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.setStateLocked(types.StateOpen)
	c.delay = 0
	queued := c.queue
	c.queue = nil
	losses := c.losses
	c.mu.Unlock()

	var installErr error
	c.subs.Range(func(_ string, sub *subscription) bool {
		if err := c.install(conn, sub); err != nil {
			installErr = err
			return false
		}

		return true
	})
	if installErr != nil {
		return installErr
	}

	for _, out := range queued {
		if err := conn.Publish(out.subject, out.data); err != nil {
			c.logger.Error("flush of queued send failed", "subject", out.subject, "error", err)
		}
	}

	c.logger.Info("connected", "url", c.cfg.serverURL(), "prior_losses", losses)
	if losses > 1 {
		c.hooks.ConnectionResumed(losses)
	}

	return nil
}

// install subscribes one topic on the given connection.
func (c *Channel) install(conn *nats.Conn, sub *subscription) error {
	natsSub, err := conn.Subscribe(sub.subject, func(msg *nats.Msg) {
		c.dispatch(sub, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", sub.subject, err)
	}

	sub.mu.Lock()
	sub.natsSub = natsSub
	sub.mu.Unlock()

	return nil
}

// connectionLost handles an unexpected loss: count it, surface a notice once
// losses accumulate, and schedule a bounded-backoff reconnect.
func (c *Channel) connectionLost(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.losses++
	losses := c.losses
	c.setStateLocked(types.StateClosed)
	c.delay = nextDelay(c.delay, c.cfg.MinReconnectDelay, c.cfg.ReconnectGrowthFactor, c.cfg.MaxReconnectDelay)
	delay := c.delay
	if c.retry != nil {
		c.retry.Stop()
	}
	c.retry = c.clk.AfterFunc(delay, c.reconnect)
	c.mu.Unlock()

	c.metrics.RecordReconnectDelay(delay.Seconds())
	c.logger.Warn("connection lost",
		"losses", losses,
		"retry_in", delay,
		"error", cause,
	)
	// The very first loss is suppressed to avoid noise from normal page-load
	// races.
	if losses > 1 {
		c.hooks.ConnectionLost(losses)
	}
}

// reconnect is the backoff timer callback.
func (c *Channel) reconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(types.StateConnecting)
	c.mu.Unlock()

	if err := c.establish(); err != nil {
		c.connectionLost(err)
	}
}

// dispatch routes one inbound payload: duplicate redeliveries and malformed
// payloads are discarded, error shapes are routed to the error hook only when
// addressed to this client, self-echoes are dropped, and everything else is
// handed to the topic's receive handler in arrival order.
func (c *Channel) dispatch(sub *subscription, data []byte) {
	digest := xxh3.Hash(data)
	sub.mu.Lock()
	duplicate := sub.hasDigest && sub.lastDigest == digest
	sub.lastDigest = digest
	sub.hasDigest = true
	sub.mu.Unlock()
	if duplicate {
		c.metrics.RecordDiscard("duplicate")
		return
	}

	env, err := types.ParseEnvelope(data)
	if err != nil {
		c.metrics.RecordDiscard("malformed")
		c.logger.Error("discarding malformed broadcast", "topic", sub.topic, "error", err)

		return
	}

	if env.IsError {
		if env.HasComponentID && env.ComponentID == c.componentID {
			c.metrics.RecordMessage("inbound", "error")
			c.hooks.ChannelError(env.Error, env.ErrorMessage)
		} else {
			// Errors addressed to another client's action are not ours to
			// surface.
			c.metrics.RecordDiscard("foreign_error")
		}

		return
	}

	if env.HasComponentID && env.ComponentID == c.componentID {
		c.metrics.RecordDiscard("echo")
		c.logger.Debug("dropped self-echo", "topic", sub.topic)

		return
	}

	c.metrics.RecordMessage("inbound", "diff")
	sub.handler(sub.topic, env)
}

func (c *Channel) setStateLocked(state types.ConnState) {
	c.state = state
	c.metrics.RecordConnectionState(state)
}
