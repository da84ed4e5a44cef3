package types

// Hooks provides optional callbacks for presentation-layer events. All fields
// are optional; nil hooks are skipped. Callbacks are invoked synchronously
// from the turn that produced the event and must not block.
type Hooks struct {
	// OnConnectionLost fires when a subscription's connection drops after the
	// first loss (the very first loss is suppressed to avoid noise from
	// normal page-load races). losses is the total loss count so far.
	OnConnectionLost func(losses int)

	// OnConnectionResumed fires when a reconnection succeeds after at least
	// one prior loss was surfaced.
	OnConnectionResumed func(losses int)

	// OnBanner fires for user-facing notices piggybacked on broadcasts.
	OnBanner func(kind, text string)

	// OnChannelError fires for error-shaped payloads addressed to this
	// client's component id. Errors addressed to other clients are ignored.
	OnChannelError func(errText, message string)

	// OnStaleView fires when an operation or diff references a unit id
	// unknown to this client. The operator should refresh the page.
	OnStaleView func(unitID int64)

	// OnLoadingChanged fires when the store's loading flag flips, e.g. while
	// a server-computed allocation run is in flight.
	OnLoadingChanged func(loading bool)
}

// ConnectionLost invokes OnConnectionLost if set.
func (h *Hooks) ConnectionLost(losses int) {
	if h != nil && h.OnConnectionLost != nil {
		h.OnConnectionLost(losses)
	}
}

// ConnectionResumed invokes OnConnectionResumed if set.
func (h *Hooks) ConnectionResumed(losses int) {
	if h != nil && h.OnConnectionResumed != nil {
		h.OnConnectionResumed(losses)
	}
}

// ShowBanner invokes OnBanner if set.
func (h *Hooks) ShowBanner(kind, text string) {
	if h != nil && h.OnBanner != nil {
		h.OnBanner(kind, text)
	}
}

// ChannelError invokes OnChannelError if set.
func (h *Hooks) ChannelError(errText, message string) {
	if h != nil && h.OnChannelError != nil {
		h.OnChannelError(errText, message)
	}
}

// StaleView invokes OnStaleView if set.
func (h *Hooks) StaleView(unitID int64) {
	if h != nil && h.OnStaleView != nil {
		h.OnStaleView(unitID)
	}
}

// LoadingChanged invokes OnLoadingChanged if set.
func (h *Hooks) LoadingChanged(loading bool) {
	if h != nil && h.OnLoadingChanged != nil {
		h.OnLoadingChanged(loading)
	}
}
