package store

import (
	"fmt"
	"sort"

	"github.com/Antigravity-finder/tabbycat/shard"
	"github.com/Antigravity-finder/tabbycat/types"
)

// ShardedUnits returns the units this client operates on: the full set ranked
// by the current sort key, interleaved and split per the sharding
// configuration. Memoized until a unit, ranking or shard mutation invalidates
// it. The returned slice is a copy; the units are live pointers and must be
// treated as read-only.
func (s *Store) ShardedUnits() []*types.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	sharded := s.shardedLocked()
	out := make([]*types.Unit, len(sharded))
	copy(out, sharded)

	return out
}

// SortedUnits returns the sharded subset in final display order, sorted by
// the previously assigned sort index.
func (s *Store) SortedUnits() []*types.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	return shard.SortByIndex(s.shardedLocked())
}

// UnassignedItems returns the items whose id does not appear in any unit's
// assignment map, ordered by most recent drag first (last-modified
// descending, ties by id) so manual drag ordering is preserved.
//
// Assignment is scanned across every known unit, not just the current shard:
// an item seated in another shard must not be offered here, or concurrent
// editors could double-allocate it.
func (s *Store) UnassignedItems() []*types.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cache.unassignedValid {
		assigned := make(map[int64]struct{})
		for _, u := range s.units {
			for _, id := range u.Adjudicators.IDs() {
				assigned[id] = struct{}{}
			}
		}

		out := make([]*types.Item, 0, len(s.items))
		for id, item := range s.items {
			if _, ok := assigned[id]; !ok {
				out = append(out, item)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].LastModified != out[j].LastModified {
				return out[i].LastModified > out[j].LastModified
			}

			return out[i].ID < out[j].ID
		})

		s.cache.unassigned = out
		s.cache.unassignedValid = true
	}

	out := make([]*types.Item, len(s.cache.unassigned))
	copy(out, s.cache.unassigned)

	return out
}

// DuplicateAssignments returns the item ids assigned in more than one unit,
// a corruption signal requiring a refresh. The anomaly is reported for the
// UI to flag; the store keeps operating.
func (s *Store) DuplicateAssignments() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cache.duplicatesValid {
		seen := make(map[int64]struct{})
		flagged := make(map[int64]struct{})
		var duplicates []int64
		for _, unitID := range s.unitIDsLocked() {
			for _, itemID := range s.units[unitID].Adjudicators.IDs() {
				if _, ok := seen[itemID]; ok {
					if _, already := flagged[itemID]; !already {
						duplicates = append(duplicates, itemID)
						flagged[itemID] = struct{}{}
					}
					continue
				}
				seen[itemID] = struct{}{}
			}
		}
		s.cache.duplicates = duplicates
		s.cache.duplicatesValid = true
	}

	out := make([]int64, len(s.cache.duplicates))
	copy(out, s.cache.duplicates)

	return out
}

// UnknownAssignedItems returns item ids referenced inside unit assignment
// maps that do not exist in the item table. A non-empty result means this
// client's view is stale and should be refreshed.
func (s *Store) UnknownAssignedItems() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unknown []int64
	seen := make(map[int64]struct{})
	for _, unitID := range s.unitIDsLocked() {
		for _, itemID := range s.units[unitID].Adjudicators.IDs() {
			if _, ok := s.items[itemID]; ok {
				continue
			}
			if _, already := seen[itemID]; already {
				continue
			}
			seen[itemID] = struct{}{}
			unknown = append(unknown, itemID)
		}
	}

	return unknown
}

// AllTeams collects every seated team across all debates, keyed by team id.
func (s *Store) AllTeams() map[int64]*types.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	teams := make(map[int64]*types.Team)
	for _, u := range s.units {
		for _, team := range u.Teams {
			if team != nil {
				teams[team.ID] = team
			}
		}
	}

	return teams
}

// ActiveHighlightClass returns the css class suffixing the active category,
// e.g. "break-display", or "" when no category is active.
func (s *Store) ActiveHighlightClass() string {
	name, ok := s.ActiveHighlight()
	if !ok {
		return ""
	}

	return fmt.Sprintf("%s-display", name)
}

// OverlapClasses resolves membership-based highlight classes: one class per
// member pk that matches an option of the category (break categories,
// speaker categories).
//
// Parameters:
//   - category: Highlight category name
//   - memberPKs: The entity's membership pks
//
// Returns:
//   - []string: Matching css class tags in option order of the input pks
func (s *Store) OverlapClasses(category string, memberPKs []int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.highlights[category]
	if !ok {
		return nil
	}
	var classes []string
	for _, pk := range memberPKs {
		if opt, ok := cat.Option(pk); ok {
			classes = append(classes, opt.CSS)
		}
	}

	return classes
}

// OrderClass resolves an order-based highlight class: the first option, in
// payload order, whose cutoff the value meets or exceeds (score and priority
// bands).
//
// Parameters:
//   - category: Highlight category name
//   - value: The entity's value for the category
//
// Returns:
//   - string: Matching css class tag, or "" if no cutoff is met
func (s *Store) OrderClass(category string, value float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.highlights[category]
	if !ok {
		return ""
	}
	for _, opt := range cat.Options {
		if value >= opt.Fields.Cutoff {
			return opt.CSS
		}
	}

	return ""
}

// RegionClass resolves the region highlight class for an entity belonging to
// the given institution.
func (s *Store) RegionClass(institutionID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.highlights["region"]
	if !ok {
		return ""
	}
	inst, ok := s.institutions[institutionID]
	if !ok {
		return ""
	}
	if opt, ok := cat.Option(inst.Region); ok {
		return opt.CSS
	}

	return ""
}
