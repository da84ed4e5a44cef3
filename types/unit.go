package types

import "slices"

// Role identifies a position on an adjudicator panel.
type Role string

// Panel roles in display order. The chair role holds at most one occupant;
// the store deduplicates it on merge.
const (
	RoleChair     Role = "C"
	RolePanellist Role = "P"
	RoleTrainee   Role = "T"
)

// RoleOrder is the canonical iteration order over panel roles.
var RoleOrder = []Role{RoleChair, RolePanellist, RoleTrainee}

// NoExclude disables the exclusion parameter of membership scans.
const NoExclude int64 = -1

// RoleMap is an ordered role → occupant-id-list assignment map.
//
// A nil RoleMap is treated as an empty assignment by all read methods.
type RoleMap map[Role][]int64

// EmptyRoleMap returns a RoleMap with all canonical roles present and empty.
//
// Returns:
//   - RoleMap: Fresh map with empty occupant lists for C, P and T
func EmptyRoleMap() RoleMap {
	m := make(RoleMap, len(RoleOrder))
	for _, r := range RoleOrder {
		m[r] = []int64{}
	}

	return m
}

// Clone returns a deep copy of the role map.
//
// Diff computation clones allocations before mutating them so that the store's
// copy is never aliased by an in-flight gesture.
func (m RoleMap) Clone() RoleMap {
	if m == nil {
		return nil
	}
	out := make(RoleMap, len(m))
	for role, ids := range m {
		out[role] = slices.Clone(ids)
	}

	return out
}

// IDs returns every occupant id in canonical role order. Roles outside
// RoleOrder, if any, are appended afterwards in unspecified order.
func (m RoleMap) IDs() []int64 {
	var out []int64
	for _, role := range RoleOrder {
		out = append(out, m[role]...)
	}
	for role, ids := range m {
		if !slices.Contains(RoleOrder, role) {
			out = append(out, ids...)
		}
	}

	return out
}

// Contains reports whether id occupies any role, optionally skipping one
// occupant (pass NoExclude to scan everything). The exclusion is used to avoid
// flagging an item against itself during conflict evaluation.
func (m RoleMap) Contains(id int64, exclude int64) bool {
	for _, ids := range m {
		for _, occupant := range ids {
			if exclude != NoExclude && occupant == exclude {
				continue
			}
			if occupant == id {
				return true
			}
		}
	}

	return false
}

// Add appends id to the given role's occupant list.
func (m RoleMap) Add(role Role, id int64) {
	m[role] = append(m[role], id)
}

// Remove deletes every occurrence of id from the given role.
func (m RoleMap) Remove(role Role, id int64) {
	m[role] = slices.DeleteFunc(m[role], func(v int64) bool { return v == id })
}

// DedupChair enforces the single-chair invariant: the first chair occupant is
// kept and any further occupants are removed from the role.
//
// Returns:
//   - []int64: The displaced occupants, in their original order (nil if none)
func (m RoleMap) DedupChair() []int64 {
	chairs := m[RoleChair]
	if len(chairs) <= 1 {
		return nil
	}
	displaced := slices.Clone(chairs[1:])
	m[RoleChair] = chairs[:1]

	return displaced
}

// UnitKind distinguishes the two unit variants.
type UnitKind int

const (
	// KindDebate is a drawn debate carrying team slots and a bracket range.
	KindDebate UnitKind = iota

	// KindPanel is a preformed panel carrying a single bracket value.
	KindPanel
)

// String returns the string representation of the unit kind.
func (k UnitKind) String() string {
	switch k {
	case KindDebate:
		return "debate"
	case KindPanel:
		return "panel"
	default:
		return "unknown"
	}
}

// Team is a side of a debate. Slots may be empty (nil team) while sides are
// being edited.
type Team struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name,omitempty"`
	Institution     int64   `json:"institution"`
	Points          float64 `json:"points"`
	BreakCategories []int64 `json:"break_categories,omitempty"`
}

// Unit is a debate or a panel being allocated adjudicators. Identity is the
// integer id; units are owned exclusively by the store and mutated only
// through its declared actions. Units are never deleted during a session but
// may be replaced wholesale when the server broadcasts a new unit with the
// same id.
type Unit struct {
	ID   int64
	Kind UnitKind

	// Adjudicators maps each panel role to its occupant item ids.
	Adjudicators RoleMap

	// Teams maps side position to the occupying team. Debates only; a slot
	// may be nil while sides are being edited.
	Teams map[string]*Team

	// Bracket is the single bracket value carried by panels.
	Bracket float64

	// BracketMin and BracketMax bound the bracket range carried by debates.
	BracketMin float64
	BracketMax float64

	Importance float64
	RoomRank   int
	Venue      int64

	// Liveness is the count of teams inside break-eligibility bounds. It is
	// computed lazily by the sort engine; HasLiveness records whether the
	// value has been derived yet.
	Liveness    int
	HasLiveness bool

	// SortIndex is assigned by the sort engine over the current sharded,
	// ordered subset and drives final display order.
	SortIndex int
}

// RankBracket returns the unit's primary bracket ranking key: the midpoint of
// the min/max pair for debates, the raw bracket value for panels.
func (u *Unit) RankBracket() float64 {
	if u.Kind == KindDebate {
		return (u.BracketMin + u.BracketMax) / 2
	}

	return u.Bracket
}

// TiebreakBracket returns the secondary bracket key used to break importance
// and liveness ties: the lower bracket bound for debates, the raw bracket
// value for panels.
func (u *Unit) TiebreakBracket() float64 {
	if u.Kind == KindDebate {
		return u.BracketMin
	}

	return u.Bracket
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	out := *u
	out.Adjudicators = u.Adjudicators.Clone()
	if u.Teams != nil {
		out.Teams = make(map[string]*Team, len(u.Teams))
		for pos, team := range u.Teams {
			if team == nil {
				out.Teams[pos] = nil
				continue
			}
			t := *team
			t.BreakCategories = slices.Clone(team.BreakCategories)
			out.Teams[pos] = &t
		}
	}

	return &out
}
