package shard

import (
	"slices"

	"github.com/Antigravity-finder/tabbycat/types"
)

// Rank orders units by the selected ranking key and returns a new slice; the
// input is not mutated.
//
// All keys except room rank sort descending so the most important work
// appears first. Room rank sorts ascending, matching draw display order; the
// asymmetry is an explicit policy.
//
// Ties beyond the defined keys are broken by unit id so the ordering is
// deterministic regardless of input order.
//
// Parameters:
//   - units: Working set to order
//   - mode: Ranking key
//   - breakBounds: Dead/safe bounds per break category pk, consumed by the
//     liveness key (ignored by the others; may be nil)
//
// Returns:
//   - []*types.Unit: Newly allocated ranked sequence
func Rank(units []*types.Unit, mode types.SortMode, breakBounds map[int64]types.HighlightFields) []*types.Unit {
	ranked := slices.Clone(units)
	if len(ranked) == 0 {
		return ranked
	}

	// Deterministic base order before the stable key sort.
	slices.SortFunc(ranked, func(a, b *types.Unit) int {
		return int(a.ID - b.ID)
	})

	switch mode {
	case types.SortBracket:
		sortDescending(ranked, func(u *types.Unit) (float64, float64) {
			return u.RankBracket(), 0
		})
	case types.SortRoomRank:
		slices.SortStableFunc(ranked, func(a, b *types.Unit) int {
			return a.RoomRank - b.RoomRank
		})
	case types.SortImportance:
		sortDescending(ranked, func(u *types.Unit) (float64, float64) {
			return u.Importance, u.TiebreakBracket()
		})
	case types.SortLiveness:
		for _, u := range ranked {
			ensureLiveness(u, breakBounds)
		}
		sortDescending(ranked, func(u *types.Unit) (float64, float64) {
			return float64(u.Liveness), u.TiebreakBracket()
		})
	}

	return ranked
}

// sortDescending stably sorts by (primary, secondary) descending. Units tied
// on both keys keep the id-ascending base order.
func sortDescending(units []*types.Unit, key func(*types.Unit) (primary, secondary float64)) {
	slices.SortStableFunc(units, func(a, b *types.Unit) int {
		ap, as := key(a)
		bp, bs := key(b)
		switch {
		case ap > bp:
			return -1
		case ap < bp:
			return 1
		case as > bs:
			return -1
		case as < bs:
			return 1
		default:
			return 0
		}
	})
}

// ensureLiveness derives and memoizes the unit's liveness score: the count of
// seated teams whose points fall strictly between their break categories'
// dead and safe bounds.
func ensureLiveness(u *types.Unit, breakBounds map[int64]types.HighlightFields) {
	if u.HasLiveness {
		return
	}
	u.Liveness = 0
	u.HasLiveness = true
	for _, team := range u.Teams {
		if team == nil {
			continue
		}
		for _, bc := range team.BreakCategories {
			bounds, ok := breakBounds[bc]
			if !ok {
				continue
			}
			if team.Points > bounds.Dead && team.Points < bounds.Safe {
				u.Liveness++
			}
		}
	}
}
