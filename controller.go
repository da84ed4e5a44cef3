package tabbycat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Antigravity-finder/tabbycat/channel"
	"github.com/Antigravity-finder/tabbycat/internal/clock"
	"github.com/Antigravity-finder/tabbycat/internal/logging"
	"github.com/Antigravity-finder/tabbycat/internal/metrics"
	"github.com/Antigravity-finder/tabbycat/saver"
	"github.com/Antigravity-finder/tabbycat/store"
	"github.com/Antigravity-finder/tabbycat/types"
)

// DragSource describes where a drag gesture started.
//
// Exactly one of the location fields applies: Assignment points at the unit
// the item currently sits in, Panel marks a whole-panel drag, and when both
// are nil the item came from the unassigned pool.
type DragSource struct {
	// ItemID is the dragged adjudicator. Ignored for whole-panel drags.
	ItemID int64

	// Assignment is the unit the item is being dragged out of, nil when it
	// came from the unassigned pool.
	Assignment *int64

	// Panel is set when an entire preformed panel is being dragged.
	Panel *int64

	// Position is the role the item held at the origin.
	Position Role
}

// DropTarget describes where a drag gesture ended.
type DropTarget struct {
	// Assignment is the receiving unit, nil for the unassigned pool.
	Assignment *int64

	// Position is the role at the destination.
	Position Role
}

// Controller is the main entry point of the library. It owns the allocation
// store, the live sync channel, and the save client for one editing view,
// and turns drag gestures into minimal diffs that every other editor of the
// same round converges on.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Gestures are serialized; each one is applied locally and broadcast
//     before the next is admitted
//
// Lifecycle:
//   - Create with New()
//   - Call Start() with the initial load payload to connect and subscribe
//   - Use hooks to react to connection events and server notices
//   - Call Close() for teardown
type Controller struct {
	cfg Config

	store *Store
	ch    *channel.Channel
	save  *saver.Client

	hooks   *types.Hooks
	logger  types.Logger
	metrics types.MetricsCollector
	clk     types.Clock

	claimer *channel.ShardClaimer

	mu      sync.Mutex
	started bool
	closed  bool
}

// Store is the allocation store type owned by the Controller, aliased here so
// callers reading derived views do not need to import the store package.
type Store = store.Store

// New creates a Controller from the given configuration.
//
// Parameters:
//   - cfg: Complete configuration (defaults applied, then validated)
//   - opts: Optional dependencies (hooks, metrics, logger, clock)
//
// Returns:
//   - *Controller: Initialized controller, not yet connected
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	cfg := tabbycat.Config{Channel: channel.Config{
//	    URL:            nats.DefaultURL,
//	    TournamentSlug: "australs2025",
//	    RoundSlug:      "3",
//	}}
//	ctrl, err := tabbycat.New(cfg, tabbycat.WithHooks(hooks))
func New(cfg Config, opts ...Option) (*Controller, error) {
	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &controllerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	collector := options.metrics
	if collector == nil {
		collector = metrics.NewNop()
	}
	hooks := options.hooks
	clk := options.clock
	if clk == nil {
		clk = clock.NewReal()
	}

	chanOpts := []channel.Option{
		channel.WithLogger(logger),
		channel.WithMetrics(collector),
		channel.WithClock(clk),
	}
	if hooks != nil {
		chanOpts = append(chanOpts, channel.WithHooks(hooks))
	}
	if options.dial != nil {
		chanOpts = append(chanOpts, channel.WithDialer(options.dial))
	}
	if options.hasComponID {
		chanOpts = append(chanOpts, channel.WithComponentID(options.componentID))
	}

	ch, err := channel.New(cfg.Channel, chanOpts...)
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:     cfg,
		store:   store.New(logger, collector),
		ch:      ch,
		save:    saver.New(cfg.Save, logger),
		hooks:   hooks,
		logger:  logger,
		metrics: collector,
		clk:     clk,
	}, nil
}

// Store returns the allocation store for reading derived views (sharded
// units, unassigned items, conflict reports).
func (c *Controller) Store() *Store { return c.store }

// Channel returns the underlying sync channel.
func (c *Controller) Channel() *channel.Channel { return c.ch }

// ComponentID returns the session's component id used for echo suppression.
func (c *Controller) ComponentID() int64 { return c.ch.ComponentID() }

// Start loads the initial payload, connects the sync channel, and subscribes
// to the view's topic.
//
// Parameters:
//   - ctx: Reserved for the optional shard claim
//   - payload: Initial server payload (units, items, conflicts, highlights)
//
// Returns:
//   - error: ErrAlreadyStarted, load error, or connection error
func (c *Controller) Start(ctx context.Context, payload *types.InitialPayload) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if c.closed {
		c.mu.Unlock()
		return channel.ErrClosed
	}
	c.started = true
	c.mu.Unlock()

	if err := c.store.LoadInitial(payload); err != nil {
		return fmt.Errorf("load initial payload: %w", err)
	}

	if err := c.ch.Subscribe(c.cfg.Topic, c.receive); err != nil {
		return err
	}
	if err := c.ch.Connect(); err != nil {
		// The channel keeps reconnecting on its own; surface the first
		// failure but stay started.
		c.logger.Warn("initial connect failed, reconnecting in background", "error", err)
	}

	c.logger.Info("controller started",
		"topic", c.cfg.Topic,
		"units", c.store.UnitCount(),
		"component_id", c.ch.ComponentID(),
	)

	return nil
}

// Close tears down the channel and releases any shard claim. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	claimer := c.claimer
	c.claimer = nil
	c.mu.Unlock()

	if claimer != nil {
		if err := claimer.Release(context.Background()); err != nil {
			c.logger.Warn("shard claim release failed", "error", err)
		}
	}
	c.ch.Close()
}

// ClaimShard claims an exclusive shard index for this editor and applies the
// matching sharding configuration to the store.
//
// Parameters:
//   - ctx: Context for the KV claim
//   - cfg: Desired sharding configuration; Index is filled in from the claim
//
// Returns:
//   - int: Claimed shard index
//   - error: channel.ErrNoAvailableShard when every index is held, or KV error
func (c *Controller) ClaimShard(ctx context.Context, cfg ShardingConfig) (int, error) {
	c.mu.Lock()
	claimer := c.claimer
	c.mu.Unlock()

	if claimer == nil {
		conn := c.ch.Conn()
		if conn == nil {
			return -1, ErrNotStarted
		}
		var err error
		claimer, err = channel.NewShardClaimer(ctx, conn,
			c.cfg.Claim.Bucket, c.cfg.Channel.RoundSlug, c.ch.SessionID(), c.cfg.Claim.TTL, c.logger)
		if err != nil {
			return -1, err
		}
		c.mu.Lock()
		c.claimer = claimer
		c.mu.Unlock()
	}

	index, err := claimer.Claim(ctx, cfg.Split)
	if err != nil {
		return -1, err
	}
	if err := claimer.StartRenewal(ctx); err != nil {
		return -1, err
	}

	cfg.Index = &index
	c.store.SetSharding(cfg)
	c.logger.Info("shard claimed and applied", "index", index, "split", cfg.Split)

	return index, nil
}

// MoveItem moves one adjudicator between positions, panels, or the
// unassigned pool, computing the minimal set of unit diffs.
//
// Moving an item into an occupied chair seat evicts the sitting chair: the
// displaced chair relocates to the drag origin position when the origin was
// another unit, and falls back to the unassigned pool when the item came
// from the pool. Dragging a whole panel clears that panel's allocation.
//
// The diffs are applied locally first, then broadcast tagged with this
// session's component id, and the moved items' last-modified stamps are
// touched to preserve drag order in the unassigned view.
//
// Parameters:
//   - drag: Gesture origin
//   - drop: Gesture destination
//
// Returns:
//   - error: ErrStaleGesture when either end references an unknown unit
//     (nothing is applied), or a broadcast error
func (c *Controller) MoveItem(drag DragSource, drop DropTarget) error {
	if sameAssignment(drag.Assignment, drop.Assignment) && drag.Position == drop.Position {
		return nil
	}
	if drag.Assignment == nil && drag.Panel == nil && drop.Assignment == nil {
		// Pool-to-pool drags change nothing.
		return nil
	}

	modified := []int64{drag.ItemID}

	var fromAlloc, toAlloc RoleMap
	var err error
	if drag.Assignment != nil {
		fromAlloc, err = c.allocation(*drag.Assignment)
	} else if drag.Panel != nil {
		fromAlloc, err = c.allocation(*drag.Panel)
	}
	if err != nil {
		return err
	}
	if drop.Assignment != nil {
		toAlloc, err = c.allocation(*drop.Assignment)
		if err != nil {
			return err
		}
	}
	if sameAssignment(drag.Assignment, drop.Assignment) {
		// Same unit, different position: mutate one map.
		toAlloc = fromAlloc
	}

	var changes []UnitDiff
	if drag.Panel != nil {
		// A whole-panel drag empties the panel; the receiving side decides
		// what to do with the panellists.
		changes = append(changes, UnitDiff{
			ID:           *drag.Panel,
			Adjudicators: RoleMap{RoleChair: {}, RolePanellist: {}, RoleTrainee: {}},
		})
	} else {
		if fromAlloc != nil {
			fromAlloc.Remove(drag.Position, drag.ItemID)
		}
		if toAlloc != nil {
			toAlloc.Add(drop.Position, drag.ItemID)
			if chairs := toAlloc[RoleChair]; len(chairs) > 1 {
				existing := chairs[0]
				modified = append(modified, existing)
				toAlloc.Remove(RoleChair, existing)
				if drag.Assignment != nil {
					fromAlloc.Add(drag.Position, existing)
				}
			}
		}

		if fromAlloc != nil {
			changes = append(changes, UnitDiff{ID: *drag.Assignment, Adjudicators: fromAlloc})
		}
		if toAlloc != nil && !sameAssignment(drag.Assignment, drop.Assignment) {
			changes = append(changes, UnitDiff{ID: *drop.Assignment, Adjudicators: toAlloc})
		}
	}

	if err := c.commit(changes); err != nil {
		return err
	}
	c.store.TouchItems(modified, c.clk.Now())

	return nil
}

// SwapPanels exchanges the full adjudicator allocations of two units.
//
// Parameters:
//   - draggedID: Unit whose panel was dragged
//   - droppedID: Unit it was dropped on
//
// Returns:
//   - error: ErrStaleGesture when either unit is unknown, or broadcast error
func (c *Controller) SwapPanels(draggedID, droppedID int64) error {
	fromAlloc, err := c.allocation(draggedID)
	if err != nil {
		return err
	}
	toAlloc, err := c.allocation(droppedID)
	if err != nil {
		return err
	}

	return c.commit([]UnitDiff{
		{ID: draggedID, Adjudicators: toAlloc},
		{ID: droppedID, Adjudicators: fromAlloc},
	})
}

// RunAction triggers a server-computed operation such as an automated
// allocation or prioritisation run. The loading flag is raised immediately;
// completion arrives as a state diff plus a banner that resets it.
//
// Parameters:
//   - action: Action name understood by the backend
//   - settings: Action settings forwarded verbatim
//
// Returns:
//   - error: Broadcast error
func (c *Controller) RunAction(action string, settings map[string]any) error {
	c.setLoading(true)
	if err := c.ch.SendAction(c.cfg.Topic, action, settings); err != nil {
		c.setLoading(false)
		return err
	}
	c.logger.Info("action triggered", "action", action)

	return nil
}

// Save posts the current allocation of one unit to the backend's save
// endpoint. Not retried on failure.
func (c *Controller) Save(ctx context.Context, url string, unitID int64) error {
	alloc, err := c.allocation(unitID)
	if err != nil {
		return err
	}

	payload := map[string]any{"id": unitID, "adjudicators": alloc}
	if _, err := c.save.Save(ctx, url, payload); err != nil {
		return err
	}
	c.store.MarkSaved(c.clk.Now())

	return nil
}

// commit applies diffs locally, broadcasts them, and bumps the save counter.
// Local state leads the broadcast so the gesture never waits on the network.
func (c *Controller) commit(changes []UnitDiff) error {
	if len(changes) == 0 {
		return nil
	}

	if err := c.store.ApplyUnitDiffs(changes); err != nil {
		return err
	}

	env := &types.Envelope{Groups: map[string][]types.UnitDiff{"adjudicators": changes}}
	if err := c.ch.Send(c.cfg.Topic, env); err != nil {
		return err
	}
	c.store.MarkSaved(c.clk.Now())

	return nil
}

// receive handles one inbound broadcast that already passed the channel's
// echo suppression and dedupe.
func (c *Controller) receive(topic string, env *types.Envelope) {
	if env.Banner != nil {
		c.hooks.ShowBanner(env.Banner.Type, env.Banner.Text)
		c.setLoading(false)
	}

	var diffs []types.UnitDiff
	for _, group := range env.Groups {
		diffs = append(diffs, group...)
	}
	if len(diffs) == 0 {
		return
	}

	if err := c.store.ApplyUnitDiffs(diffs); err != nil {
		var stale *store.StaleViewError
		if errors.As(err, &stale) {
			for _, id := range stale.UnitIDs {
				c.hooks.StaleView(id)
			}
			c.logger.Warn("broadcast referenced unknown units", "topic", topic, "unit_ids", stale.UnitIDs)

			return
		}
		c.logger.Error("applying broadcast failed", "topic", topic, "error", err)
	}
}

// allocation fetches a cloned role map, translating an unknown unit into the
// stale-view hook plus ErrStaleGesture.
func (c *Controller) allocation(unitID int64) (RoleMap, error) {
	alloc, err := c.store.Allocation(unitID)
	if err != nil {
		if errors.Is(err, store.ErrUnknownUnit) {
			c.hooks.StaleView(unitID)

			return nil, fmt.Errorf("%w: unit %d", ErrStaleGesture, unitID)
		}

		return nil, err
	}

	return alloc, nil
}

func (c *Controller) setLoading(loading bool) {
	c.store.SetLoading(loading)
	c.hooks.LoadingChanged(loading)
}

// sameAssignment compares two optional unit references by value.
func sameAssignment(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
