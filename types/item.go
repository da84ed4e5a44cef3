package types

// Item is an allocatable resource, in practice an adjudicator. Items are
// loaded once at session start and mutated only via partial-attribute merge;
// they are never removed mid-session.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name,omitempty"`
	Gender      string  `json:"gender,omitempty"`
	Institution int64   `json:"institution,omitempty"`
	Score       float64 `json:"score,omitempty"`

	// LastModified is a unix-seconds timestamp bumped whenever the item is
	// dragged, used to preserve manual drag ordering among unassigned items.
	LastModified int64 `json:"vue_last_modified,omitempty"`
}

// Institution is static reference data used only for conflict and highlight
// lookups. Immutable after load.
type Institution struct {
	ID     int64  `json:"id"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code,omitempty"`
	Region int64  `json:"region,omitempty"`
}

// Round identifies the round being allocated.
type Round struct {
	ID   int64  `json:"id"`
	Seq  int    `json:"seq,omitempty"`
	Slug string `json:"slug,omitempty"`
	Name string `json:"name,omitempty"`
}

// Tournament identifies the tournament the round belongs to.
type Tournament struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug,omitempty"`
	Name string `json:"name,omitempty"`
}
