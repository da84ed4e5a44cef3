package shard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Antigravity-finder/tabbycat/types"
)

func makeUnits(n int) []*types.Unit {
	units := make([]*types.Unit, n)
	for i := range n {
		units[i] = &types.Unit{ID: int64(i), RoomRank: i}
	}

	return units
}

func TestSplit(t *testing.T) {
	t.Parallel()

	t.Run("shards are contiguous and near-equal", func(t *testing.T) {
		t.Parallel()

		shards := Split(makeUnits(10), 3)
		require.Len(t, shards, 3)
		require.Len(t, shards[0], 4)
		require.Len(t, shards[1], 3)
		require.Len(t, shards[2], 3)
		require.Equal(t, []int64{0, 1, 2, 3}, unitIDs(shards[0]))
		require.Equal(t, []int64{4, 5, 6}, unitIDs(shards[1]))
		require.Equal(t, []int64{7, 8, 9}, unitIDs(shards[2]))
	})

	t.Run("union of shards is exactly the input", func(t *testing.T) {
		t.Parallel()

		for n := 0; n <= 12; n++ {
			for k := 1; k <= 5; k++ {
				t.Run(fmt.Sprintf("n=%d k=%d", n, k), func(t *testing.T) {
					units := makeUnits(n)
					shards := Split(units, k)
					require.Len(t, shards, k)

					rejoined := []int64{}
					maxSize, minSize := 0, n+1
					for _, s := range shards {
						rejoined = append(rejoined, unitIDs(s)...)
						maxSize = max(maxSize, len(s))
						minSize = min(minSize, len(s))
					}
					require.Equal(t, unitIDs(units), rejoined)
					require.LessOrEqual(t, maxSize-minSize, 1)
				})
			}
		}
	})

	t.Run("split count below one is treated as one", func(t *testing.T) {
		t.Parallel()

		shards := Split(makeUnits(3), 0)
		require.Len(t, shards, 1)
		require.Len(t, shards[0], 3)
	})
}

func TestInterleave(t *testing.T) {
	t.Parallel()

	t.Run("round-robin redistribution across shards", func(t *testing.T) {
		t.Parallel()

		// 6 units across 2 shards: evens first, odds second, so each later
		// contiguous split holds a spread of ranks
		mixed := Interleave(makeUnits(6), 2)
		require.Equal(t, []int64{0, 2, 4, 1, 3, 5}, unitIDs(mixed))
	})

	t.Run("uneven remainder lands in the earlier buckets", func(t *testing.T) {
		t.Parallel()

		mixed := Interleave(makeUnits(7), 3)
		require.Equal(t, []int64{0, 3, 6, 1, 4, 2, 5}, unitIDs(mixed))
	})

	t.Run("split count below two is the identity", func(t *testing.T) {
		t.Parallel()

		units := makeUnits(4)
		require.Equal(t, unitIDs(units), unitIDs(Interleave(units, 1)))
	})

	t.Run("interleave then split covers the input", func(t *testing.T) {
		t.Parallel()

		units := makeUnits(9)
		shards := Split(Interleave(units, 3), 3)
		seen := make(map[int64]bool)
		for _, s := range shards {
			for _, id := range unitIDs(s) {
				require.False(t, seen[id], "unit %d assigned twice", id)
				seen[id] = true
			}
		}
		require.Len(t, seen, 9)
	})
}

func TestSelect(t *testing.T) {
	t.Parallel()

	t.Run("nil shard index bypasses sharding", func(t *testing.T) {
		t.Parallel()

		cfg := types.ShardingConfig{Split: 3, Mix: types.MixSequential, Sort: types.SortRoomRank}
		selected := Select(makeUnits(6), cfg, nil)
		require.Len(t, selected, 6)
	})

	t.Run("index selects one contiguous shard", func(t *testing.T) {
		t.Parallel()

		idx := 1
		cfg := types.ShardingConfig{Split: 3, Mix: types.MixSequential, Sort: types.SortRoomRank, Index: &idx}
		selected := Select(makeUnits(6), cfg, nil)
		require.Equal(t, []int64{2, 3}, unitIDs(selected))
	})

	t.Run("interleaved mix spreads ranks across shards", func(t *testing.T) {
		t.Parallel()

		idx := 0
		cfg := types.ShardingConfig{Split: 2, Mix: types.MixInterleaved, Sort: types.SortRoomRank, Index: &idx}
		selected := Select(makeUnits(6), cfg, nil)
		require.Equal(t, []int64{0, 2, 4}, unitIDs(selected))
	})

	t.Run("out-of-range index yields nothing", func(t *testing.T) {
		t.Parallel()

		idx := 5
		cfg := types.ShardingConfig{Split: 2, Mix: types.MixSequential, Sort: types.SortRoomRank, Index: &idx}
		require.Nil(t, Select(makeUnits(4), cfg, nil))
	})

	t.Run("empty input bypasses sharding", func(t *testing.T) {
		t.Parallel()

		idx := 0
		cfg := types.ShardingConfig{Split: 2, Sort: types.SortRoomRank, Index: &idx}
		require.Empty(t, Select(nil, cfg, nil))
	})
}

func TestSortByIndex(t *testing.T) {
	t.Parallel()

	units := []*types.Unit{
		{ID: 1, SortIndex: 2},
		{ID: 2, SortIndex: 0},
		{ID: 3, SortIndex: 1},
	}
	sorted := SortByIndex(units)
	require.Equal(t, []int64{2, 3, 1}, unitIDs(sorted))
	// input untouched
	require.Equal(t, []int64{1, 2, 3}, unitIDs(units))
}
