package types

import "fmt"

// HighlightFields carries the per-option thresholds delivered by the backend.
// Cutoff drives order-based highlights (score, priority); Dead and Safe bound
// break eligibility and feed the liveness computation.
type HighlightFields struct {
	Cutoff float64 `json:"cutoff,omitempty"`
	Dead   float64 `json:"dead,omitempty"`
	Safe   float64 `json:"safe,omitempty"`
}

// HighlightOption is one entry of a highlight category, e.g. a single break
// category or region.
type HighlightOption struct {
	PK     int64           `json:"pk"`
	Name   string          `json:"name,omitempty"`
	Fields HighlightFields `json:"fields"`

	// CSS is the class tag assigned at load time: "<category>-<index>".
	CSS string `json:"-"`
}

// HighlightCategory is a named, ordered highlight rule list with the single
// mutable active flag. Option order is preserved from the load payload since
// order-based highlights resolve on the first matching cutoff.
type HighlightCategory struct {
	Active  bool
	Options []HighlightOption

	byPK map[int64]int
}

// NewHighlightCategory builds a category from its load-payload options,
// assigning each option its css tag.
//
// Parameters:
//   - name: Category name, used as the css tag prefix
//   - options: Options in payload order
//
// Returns:
//   - *HighlightCategory: Category with css tags and pk lookup built
func NewHighlightCategory(name string, options []HighlightOption) *HighlightCategory {
	cat := &HighlightCategory{
		Options: make([]HighlightOption, len(options)),
		byPK:    make(map[int64]int, len(options)),
	}
	for i, opt := range options {
		opt.CSS = fmt.Sprintf("%s-%d", name, i)
		cat.Options[i] = opt
		cat.byPK[opt.PK] = i
	}

	return cat
}

// Option returns the option with the given pk.
func (c *HighlightCategory) Option(pk int64) (HighlightOption, bool) {
	idx, ok := c.byPK[pk]
	if !ok {
		return HighlightOption{}, false
	}

	return c.Options[idx], true
}

// HighlightSet maps category name to its rule list. Immutable after load
// except for the exclusive active flags.
type HighlightSet map[string]*HighlightCategory

// BreakBounds extracts the dead/safe bounds of the "break" category keyed by
// option pk. The sort engine consumes this when computing liveness.
func (s HighlightSet) BreakBounds() map[int64]HighlightFields {
	cat, ok := s["break"]
	if !ok {
		return nil
	}
	bounds := make(map[int64]HighlightFields, len(cat.Options))
	for _, opt := range cat.Options {
		bounds[opt.PK] = opt.Fields
	}

	return bounds
}
