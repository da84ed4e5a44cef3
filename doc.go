// Package tabbycat provides a Go library for live, multi-editor adjudicator
// allocation with NATS-based synchronization.
//
// Tabbycat keeps an in-memory allocation of adjudicators to debates (or to
// preformed panels) converged across any number of concurrent editors. Each
// editor applies its own changes optimistically, broadcasts them as minimal
// field diffs, and merges everyone else's diffs as they arrive. Self-echoes
// are suppressed with a per-session component id, and a lost connection
// reconnects on its own with bounded exponential backoff.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/Antigravity-finder/tabbycat"
//
//	cfg := tabbycat.Config{
//	    Channel: channel.Config{
//	        URL:            nats.DefaultURL,
//	        TournamentSlug: "australs2025",
//	        RoundSlug:      "3",
//	    },
//	}
//
//	ctrl, err := tabbycat.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ctrl.Start(ctx, initialPayload); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	err = ctrl.MoveItem(drag, drop)
//
// # Key Features
//
//   - Field-level merge: diffs touch only the fields they carry, so merges
//     are idempotent and order-independent per field
//   - Conflict awareness: clash, institutional, and history conflicts ranked
//     by severity for every candidate pairing
//   - Sharding: deterministic ranking, interleaving, and splitting so several
//     editors can each take a disjoint slice of a large draw
//   - Echo suppression: a session's own broadcasts never round-trip into its
//     local state
//
// # Advanced Usage
//
// Hooks react to connection events and server notices:
//
//	hooks := &tabbycat.Hooks{
//	    OnConnectionLost: func(losses int) {
//	        showWarning("Connection lost; changes may not be saved")
//	    },
//	    OnStaleView: func(unitID int64) {
//	        promptRefresh()
//	    },
//	}
//
//	ctrl, err := tabbycat.New(cfg,
//	    tabbycat.WithHooks(hooks),
//	    tabbycat.WithLogger(logger),
//	)
//
// See the examples/ directory for a complete working example.
package tabbycat
