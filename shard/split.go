package shard

import (
	"slices"

	"github.com/Antigravity-finder/tabbycat/types"
)

// Interleave redistributes a ranked sequence round-robin across splitCount
// virtual shards and flattens back in shard-major order, so each subsequent
// contiguous split receives a spread of ranks rather than a block.
//
// A splitCount below 2 returns a copy of the input unchanged.
//
// Parameters:
//   - units: Ranked sequence
//   - splitCount: Number of shards the sequence will later be split into
//
// Returns:
//   - []*types.Unit: Newly allocated re-mixed sequence
func Interleave(units []*types.Unit, splitCount int) []*types.Unit {
	if splitCount < 2 || len(units) == 0 {
		return slices.Clone(units)
	}

	buckets := make([][]*types.Unit, splitCount)
	for i, u := range units {
		idx := i % splitCount
		buckets[idx] = append(buckets[idx], u)
	}

	out := make([]*types.Unit, 0, len(units))
	for _, bucket := range buckets {
		out = append(out, bucket...)
	}

	return out
}

// Split partitions a sequence into splitCount contiguous shards of
// as-equal-as-possible size. Earlier shards receive the remainder, so sizes
// differ by at most one and the union of all shards is exactly the input.
//
// Parameters:
//   - units: Sequence to partition
//   - splitCount: Number of shards (values below 1 are treated as 1)
//
// Returns:
//   - [][]*types.Unit: splitCount shards in order; empty input yields
//     splitCount empty shards
func Split(units []*types.Unit, splitCount int) [][]*types.Unit {
	if splitCount < 1 {
		splitCount = 1
	}

	shards := make([][]*types.Unit, splitCount)
	base := len(units) / splitCount
	remainder := len(units) % splitCount

	offset := 0
	for i := range splitCount {
		size := base
		if i < remainder {
			size++
		}
		shards[i] = units[offset : offset+size]
		offset += size
	}

	return shards
}

// Select runs the full pipeline (rank, mix, split, pick) and returns the
// shard the client operates on.
//
// When cfg.Index is nil or the unit set is empty, sharding is bypassed and
// the full ranked (but unsharded) sequence is returned.
//
// Parameters:
//   - units: Working set
//   - cfg: Session sharding configuration
//   - breakBounds: Liveness bounds, forwarded to Rank
//
// Returns:
//   - []*types.Unit: The selected shard in ranked order
func Select(units []*types.Unit, cfg types.ShardingConfig, breakBounds map[int64]types.HighlightFields) []*types.Unit {
	ranked := Rank(units, cfg.Sort, breakBounds)
	if !cfg.Enabled() || len(ranked) == 0 {
		return ranked
	}

	if cfg.Mix == types.MixInterleaved {
		ranked = Interleave(ranked, cfg.Split)
	}

	shards := Split(ranked, cfg.Split)
	idx := *cfg.Index
	if idx < 0 || idx >= len(shards) {
		return nil
	}

	return shards[idx]
}

// SortByIndex orders a shard by the previously assigned sort index to produce
// final display order. Returns a new slice.
func SortByIndex(units []*types.Unit) []*types.Unit {
	out := slices.Clone(units)
	slices.SortStableFunc(out, func(a, b *types.Unit) int {
		return a.SortIndex - b.SortIndex
	})

	return out
}
