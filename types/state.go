package types

// ConnState represents the lifecycle state of one channel subscription's
// logical connection.
//
// States follow a defined progression:
//
//	StateConnecting → StateOpen → StateClosed → StateConnecting (after backoff)
//
// StateTerminated is entered only on explicit teardown and is terminal.
type ConnState int

const (
	// StateConnecting indicates a dial is in progress.
	StateConnecting ConnState = iota

	// StateOpen indicates the connection is established and sends flow.
	StateOpen

	// StateClosed indicates the connection was lost; a reconnect is pending.
	StateClosed

	// StateTerminated indicates explicit teardown; no reconnect follows.
	StateTerminated
)

// String returns the string representation of the state.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}
