package types

// MixMode controls how ranked units are distributed across shards.
type MixMode string

const (
	// MixSequential hands each shard a contiguous block of the ranked order.
	MixSequential MixMode = "sequential"

	// MixInterleaved redistributes the ranked order round-robin so each shard
	// receives a spread of ranks rather than a contiguous block.
	MixInterleaved MixMode = "interleaved"
)

// SortMode selects the ranking key for ordering units.
type SortMode string

const (
	// SortBracket ranks by bracket: the midpoint of the min/max pair when the
	// unit carries one, the single bracket value otherwise. Descending.
	SortBracket SortMode = "bracket"

	// SortImportance ranks by raw importance, ties broken by bracket.
	// Descending.
	SortImportance SortMode = "importance"

	// SortLiveness ranks by the count of teams within break-eligibility
	// bounds, ties broken by bracket. Descending.
	SortLiveness SortMode = "liveness"

	// SortRoomRank ranks by room rank, ascending with no reversal. The
	// asymmetry against the other keys is an explicit policy.
	SortRoomRank SortMode = "room_rank"
)

// ShardingConfig is the session-scoped split-screen configuration. Index
// selects the shard this client operates on; nil bypasses sharding and leaves
// the full ranked sequence in view.
type ShardingConfig struct {
	Split int      `yaml:"split"`
	Mix   MixMode  `yaml:"mix"`
	Sort  SortMode `yaml:"sort"`
	Index *int     `yaml:"index"`
}

// Enabled reports whether shard selection is in effect.
func (c ShardingConfig) Enabled() bool {
	return c.Index != nil
}
