// Package channel implements the real-time synchronization protocol: one
// logical subscription per (base topic, round) pair over NATS, with an
// explicit reconnect state machine, exponential backoff bounded by a floor
// and ceiling, and self-echo suppression via a per-session component id.
//
// The channel owns its NATS connection and disables the client library's
// built-in reconnect so the state machine is the single authority on
// connection lifecycle. The backoff scheduler runs on an injectable clock,
// which lets tests drive reconnect timing with a virtual clock.
package channel
