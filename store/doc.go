// Package store implements the allocation store: the single source of truth
// holding the normalized unit, item, institution, highlight and sharding
// state for one editing view.
//
// The store is exclusively owned by one view instance. All mutations happen
// through declared actions, serialized so that each user gesture or inbound
// network event forms one atomic turn. Derived views (sharded subset,
// unassigned items, duplicate detection) are memoized and invalidated only by
// the mutations that can affect them.
package store
