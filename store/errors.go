package store

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors returned by the store.
var (
	// ErrUnknownUnit is returned when an operation names a unit id absent
	// from this client's view.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrUnknownHighlight is returned when toggling an unknown highlight
	// category.
	ErrUnknownHighlight = errors.New("unknown highlight category")

	// ErrNotLoaded is returned when an action runs before LoadInitial.
	ErrNotLoaded = errors.New("initial data not loaded")
)

// StaleViewError reports diffs that referenced unit ids unknown to this
// client and carried no replacement payload. The operator must refresh the
// page to bring its copy of the units back in sync with the server.
type StaleViewError struct {
	UnitIDs []int64
}

// Error implements the error interface.
func (e *StaleViewError) Error() string {
	return fmt.Sprintf("stale view: %d unknown unit(s) %v, refresh required", len(e.UnitIDs), e.UnitIDs)
}

// Is makes StaleViewError match ErrUnknownUnit in errors.Is checks.
func (e *StaleViewError) Is(target error) bool {
	return target == ErrUnknownUnit
}

func newStaleViewError(ids map[int64]struct{}) *StaleViewError {
	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return &StaleViewError{UnitIDs: out}
}
