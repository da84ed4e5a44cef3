package store

import (
	"sort"
	"sync"
	"time"

	"github.com/Antigravity-finder/tabbycat/conflict"
	"github.com/Antigravity-finder/tabbycat/internal/logging"
	"github.com/Antigravity-finder/tabbycat/internal/metrics"
	"github.com/Antigravity-finder/tabbycat/shard"
	"github.com/Antigravity-finder/tabbycat/types"
)

// Store is the allocation state for one editing view.
//
// All methods are safe for concurrent use; each call forms one atomic turn.
// Units and items are owned exclusively by the store; accessors hand out
// clones, never aliases.
type Store struct {
	mu sync.Mutex

	units        map[int64]*types.Unit
	items        map[int64]*types.Item
	institutions map[int64]*types.Institution
	highlights   types.HighlightSet
	conflicts    *conflict.Index

	round      *types.Round
	tournament *types.Tournament

	sharding types.ShardingConfig
	sortMode types.SortMode

	loading   bool
	lastSaved time.Time

	logger  types.Logger
	metrics types.MetricsCollector

	cache viewCache
}

// viewCache holds memoized derived views. Each entry is invalidated only by
// the mutations that can affect it: unit set or attribute changes, ranking
// mode changes, and shard configuration changes.
type viewCache struct {
	sharded      []*types.Unit
	shardedValid bool

	unassigned      []*types.Item
	unassignedValid bool

	duplicates      []int64
	duplicatesValid bool
}

func (c *viewCache) invalidate() {
	c.shardedValid = false
	c.unassignedValid = false
	c.duplicatesValid = false
}

// New creates an empty store.
//
// Parameters:
//   - logger: Logger for diagnostics (nil for no-op)
//   - collector: Metrics collector (nil for no-op)
//
// Returns:
//   - *Store: Store awaiting LoadInitial
func New(logger types.Logger, collector types.MetricsCollector) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &Store{
		units:        make(map[int64]*types.Unit),
		items:        make(map[int64]*types.Item),
		institutions: make(map[int64]*types.Institution),
		highlights:   types.HighlightSet{},
		conflicts:    conflict.NewIndex(nil, nil),
		logger:       logger,
		metrics:      collector,
	}
}

// LoadInitial populates the store from the session-start snapshot: units,
// items and institutions keyed by id, highlight categories with their css
// tags assigned, and the immutable conflict index. The initial sort order
// uses room rank for consistency with the draw.
//
// Parameters:
//   - payload: Decoded initial load payload
//
// Returns:
//   - error: nil (reserved for future payload validation)
func (s *Store) LoadInitial(payload *types.InitialPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.round = payload.Round
	s.tournament = payload.Tournament

	for _, u := range payload.Units {
		if u.Adjudicators == nil {
			u.Adjudicators = types.EmptyRoleMap()
		}
		s.units[u.ID] = u
	}
	for _, item := range payload.AllocatableItems {
		s.items[item.ID] = item
	}
	for _, inst := range payload.Institutions {
		s.institutions[inst.ID] = inst
	}
	for name, options := range payload.Extra.Highlights {
		s.highlights[name] = types.NewHighlightCategory(name, options)
	}
	s.conflicts = conflict.NewIndex(payload.Extra.Clashes, payload.Extra.Histories)

	s.sharding = types.ShardingConfig{Split: 1, Mix: types.MixSequential, Sort: types.SortRoomRank}
	s.cache.invalidate()
	s.recomputeSortIndexLocked(types.SortRoomRank)

	s.logger.Info("initial allocation data loaded",
		"units", len(s.units),
		"items", len(s.items),
		"institutions", len(s.institutions),
		"highlight_categories", len(s.highlights),
	)

	return nil
}

// ApplyUnitDiffs merges a batch of partial unit updates, one unit at a time,
// field by field. Fields absent from a diff are left untouched. Unknown ids
// with a replacement payload are inserted as new units (server-created
// panels); unknown ids without one are collected into a StaleViewError and
// the remaining diffs still apply. Merges are idempotent, so no rollback is
// needed.
//
// Parameters:
//   - diffs: Per-unit partial updates
//
// Returns:
//   - error: *StaleViewError when any diff referenced an unknown unit with no
//     replacement payload; nil otherwise
func (s *Store) ApplyUnitDiffs(diffs []types.UnitDiff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale map[int64]struct{}
	applied := 0
	for _, diff := range diffs {
		unit, ok := s.units[diff.ID]
		if !ok {
			if !diff.IsReplacement() {
				if stale == nil {
					stale = make(map[int64]struct{})
				}
				stale[diff.ID] = struct{}{}
				continue
			}
			s.units[diff.ID] = newUnitFromDiff(diff)
			applied++
			continue
		}
		mergeUnitDiff(unit, diff)
		applied++
	}

	if applied > 0 {
		s.cache.invalidate()
		s.metrics.RecordDiffApplied("unit", applied)
	}
	if stale != nil {
		err := newStaleViewError(stale)
		s.logger.Warn("diff referenced unknown units", "unit_ids", err.UnitIDs)

		return err
	}

	return nil
}

// ApplyItemDiffs merges partial updates into existing allocatable items.
// Diffs for unknown item ids are silently dropped; items are never created
// client-side.
func (s *Store) ApplyItemDiffs(diffs []types.ItemDiff) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, diff := range diffs {
		item, ok := s.items[diff.ID]
		if !ok {
			continue
		}
		if diff.LastModified != nil {
			item.LastModified = *diff.LastModified
		}
		if diff.Score != nil {
			item.Score = *diff.Score
		}
		applied++
	}
	if applied > 0 {
		s.cache.unassignedValid = false
		s.metrics.RecordDiffApplied("item", applied)
	}
}

// TouchItems bumps the last-modified timestamp on the given items so they
// keep their manual drag position among the unassigned ones.
//
// Parameters:
//   - ids: Items that just moved
//   - now: Current time, truncated to unix seconds
func (s *Store) TouchItems(ids []int64, now time.Time) {
	unix := now.Unix()
	diffs := make([]types.ItemDiff, len(ids))
	for i, id := range ids {
		diffs[i] = types.ItemDiff{ID: id, LastModified: &unix}
	}
	s.ApplyItemDiffs(diffs)
}

// ToggleHighlight flips the given highlight category, deactivating every
// other category first: at most one category is active at any time.
//
// Parameters:
//   - category: Highlight category name
//
// Returns:
//   - error: ErrUnknownHighlight if the category does not exist
func (s *Store) ToggleHighlight(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.highlights[category]
	if !ok {
		return ErrUnknownHighlight
	}
	for name, cat := range s.highlights {
		if name != category {
			cat.Active = false
		}
	}
	target.Active = !target.Active

	return nil
}

// ActiveHighlight returns the currently active category name, if any.
func (s *Store) ActiveHighlight() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, cat := range s.highlights {
		if cat.Active {
			return name, true
		}
	}

	return "", false
}

// SetSharding replaces the sharding configuration and re-derives the sort
// index over the newly selected subset.
func (s *Store) SetSharding(cfg types.ShardingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sharding = cfg
	s.cache.invalidate()
	s.recomputeSortIndexLocked(cfg.Sort)
}

// Sharding returns the current sharding configuration.
func (s *Store) Sharding() types.ShardingConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sharding
}

// RecomputeSortIndex re-derives sort_index for the currently sharded subset
// using the ranking rule for mode. Must be re-invoked whenever the mode, the
// unit set, or ranking attributes change; the assigned values form a
// permutation of 0..N-1 over the subset.
func (s *Store) RecomputeSortIndex(mode types.SortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recomputeSortIndexLocked(mode)
}

func (s *Store) recomputeSortIndexLocked(mode types.SortMode) {
	start := time.Now()
	s.sortMode = mode
	s.sharding.Sort = mode
	s.cache.shardedValid = false

	for i, u := range s.shardedLocked() {
		u.SortIndex = i
	}
	s.metrics.RecordSortRecompute(string(mode), time.Since(start).Seconds())
}

// Loading reports the loading flag used while a server-computed operation is
// in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = loading
}

// MarkSaved records the time of the last successful transmit.
func (s *Store) MarkSaved(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSaved = t
}

// LastSaved returns the time of the last successful transmit (zero if none).
func (s *Store) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSaved
}

// Round returns the loaded round metadata.
func (s *Store) Round() *types.Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.round
}

// Tournament returns the loaded tournament metadata.
func (s *Store) Tournament() *types.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tournament
}

// Conflicts returns the immutable conflict index.
func (s *Store) Conflicts() *conflict.Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conflicts
}

// Allocation returns a deep copy of the unit's role map for diff computation.
//
// Parameters:
//   - unitID: Unit to read
//
// Returns:
//   - types.RoleMap: Cloned assignment map
//   - error: ErrUnknownUnit when the id is not in this client's view
func (s *Store) Allocation(unitID int64) (types.RoleMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, ok := s.units[unitID]
	if !ok {
		return nil, ErrUnknownUnit
	}

	return unit.Adjudicators.Clone(), nil
}

// UnitSnapshot returns a deep copy of the unit.
func (s *Store) UnitSnapshot(unitID int64) (*types.Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, ok := s.units[unitID]
	if !ok {
		return nil, false
	}

	return unit.Clone(), true
}

// UnitCount returns the number of known units.
func (s *Store) UnitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.units)
}

// ConflictReportFor evaluates the conflicts of pairing an adjudicator with a
// unit, delegating to the conflict index.
func (s *Store) ConflictReportFor(adjID, unitID int64) types.ConflictReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conflicts.EvaluateAdjudicator(adjID, s.units[unitID])
}

// newUnitFromDiff builds a wholesale unit from a replacement payload.
func newUnitFromDiff(d types.UnitDiff) *types.Unit {
	u := &types.Unit{
		ID:           d.ID,
		Kind:         d.InferKind(),
		Adjudicators: d.Adjudicators.Clone(),
	}
	if u.Adjudicators == nil {
		u.Adjudicators = types.EmptyRoleMap()
	}
	u.Adjudicators.DedupChair()
	if d.TeamsSet {
		u.Teams = d.Teams
	}
	if d.Importance != nil {
		u.Importance = *d.Importance
	}
	if d.Bracket != nil {
		u.Bracket = *d.Bracket
	}
	if d.BracketMin != nil {
		u.BracketMin = *d.BracketMin
	}
	if d.BracketMax != nil {
		u.BracketMax = *d.BracketMax
	}
	if d.RoomRank != nil {
		u.RoomRank = *d.RoomRank
	}
	if d.Venue != nil {
		u.Venue = *d.Venue
	}

	return u
}

// mergeUnitDiff merges the present fields of a diff into an existing unit.
// The chair role is deduplicated after an adjudicator replace: the first
// occupant is kept, overflow occupants drop out of the role and reappear in
// the unassigned view.
func mergeUnitDiff(u *types.Unit, d types.UnitDiff) {
	if d.Adjudicators != nil {
		adjs := d.Adjudicators.Clone()
		adjs.DedupChair()
		u.Adjudicators = adjs
	}
	if d.TeamsSet {
		u.Teams = d.Teams
		u.HasLiveness = false
	}
	if d.Importance != nil {
		u.Importance = *d.Importance
	}
	if d.Bracket != nil {
		u.Bracket = *d.Bracket
	}
	if d.BracketMin != nil {
		u.BracketMin = *d.BracketMin
	}
	if d.BracketMax != nil {
		u.BracketMax = *d.BracketMax
	}
	if d.RoomRank != nil {
		u.RoomRank = *d.RoomRank
	}
	if d.Venue != nil {
		u.Venue = *d.Venue
	}
}

// unitsSliceLocked returns all units as a slice. Order is unspecified; the
// shard pipeline re-sorts deterministically.
func (s *Store) unitsSliceLocked() []*types.Unit {
	out := make([]*types.Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}

	return out
}

// shardedLocked returns the memoized sharded, ranked subset.
func (s *Store) shardedLocked() []*types.Unit {
	if !s.cache.shardedValid {
		s.cache.sharded = shard.Select(s.unitsSliceLocked(), s.sharding, s.highlights.BreakBounds())
		s.cache.shardedValid = true
	}

	return s.cache.sharded
}

// unitIDsLocked returns all unit ids in ascending order, for deterministic
// derived queries.
func (s *Store) unitIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.units))
	for id := range s.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
