package conflict

import (
	"github.com/Antigravity-finder/tabbycat/types"
)

// Index is a pure lookup over precomputed clash and history records. Built
// once at load from the initial payload and immutable afterwards; safe for
// concurrent reads.
type Index struct {
	clashes   types.ClashTable
	histories types.HistoryTable
}

// NewIndex builds an index from the load payload's conflict tables.
//
// Parameters:
//   - clashes: Subject kind → subject id → hard clashes
//   - histories: Subject kind → subject id → prior meetings
//
// Returns:
//   - *Index: Immutable conflict index
func NewIndex(clashes types.ClashTable, histories types.HistoryTable) *Index {
	if clashes == nil {
		clashes = types.ClashTable{}
	}
	if histories == nil {
		histories = types.HistoryTable{}
	}

	return &Index{clashes: clashes, histories: histories}
}

// ConflictsFor returns the clash set recorded for the subject.
//
// Parameters:
//   - kind: Subject table (adjudicators or teams)
//   - id: Subject id
//
// Returns:
//   - types.ConflictSet: Recorded clashes (zero value if none)
//   - bool: Whether any record exists for the subject
func (ix *Index) ConflictsFor(kind types.SubjectKind, id int64) (types.ConflictSet, bool) {
	table, ok := ix.clashes[kind]
	if !ok {
		return types.ConflictSet{}, false
	}
	set, ok := table[id]

	return set, ok
}

// HistoriesFor returns the prior-meeting set recorded for the subject.
//
// Parameters:
//   - kind: Subject table (adjudicators or teams)
//   - id: Subject id
//
// Returns:
//   - types.HistorySet: Recorded meetings, each with a rounds-ago distance
//   - bool: Whether any record exists for the subject
func (ix *Index) HistoriesFor(kind types.SubjectKind, id int64) (types.HistorySet, bool) {
	table, ok := ix.histories[kind]
	if !ok {
		return types.HistorySet{}, false
	}
	set, ok := table[id]

	return set, ok
}

// IsPresentIn reports whether the candidate occupies any role of the
// assignment map, optionally excluding one occupant from consideration (pass
// types.NoExclude to scan everything).
func IsPresentIn(candidateID int64, assignment types.RoleMap, excludeID int64) bool {
	return assignment.Contains(candidateID, excludeID)
}

// InstitutionInPanel reports whether any panellist (other than the excluded
// one) carries an institutional clash against the given institution.
func (ix *Index) InstitutionInPanel(institutionID int64, assignment types.RoleMap, excludeID int64) bool {
	for _, ids := range assignment {
		for _, adjID := range ids {
			if excludeID != types.NoExclude && adjID == excludeID {
				continue
			}
			set, ok := ix.ConflictsFor(types.SubjectAdjudicator, adjID)
			if !ok {
				continue
			}
			for _, ref := range set.Institution {
				if ref.ID == institutionID {
					return true
				}
			}
		}
	}

	return false
}

// InstitutionInTeams reports whether any occupied team slot carries an
// institutional clash against the given institution.
func (ix *Index) InstitutionInTeams(institutionID int64, teams map[string]*types.Team) bool {
	for _, team := range teams {
		if team == nil {
			continue
		}
		set, ok := ix.ConflictsFor(types.SubjectTeam, team.ID)
		if !ok {
			continue
		}
		for _, ref := range set.Institution {
			if ref.ID == institutionID {
				return true
			}
		}
	}

	return false
}

// TeamInTeams reports whether the given team id occupies any team slot.
func TeamInTeams(teamID int64, teams map[string]*types.Team) bool {
	for _, team := range teams {
		if team != nil && team.ID == teamID {
			return true
		}
	}

	return false
}

// PanelCombined aggregates the clash and history sets of every adjudicator on
// the unit, used by hover displays that show a whole panel's exposure.
//
// Parameters:
//   - unit: Unit whose panellists to aggregate
//
// Returns:
//   - types.ConflictSet: Union of the panellists' clashes
//   - types.HistorySet: Union of the panellists' histories
func (ix *Index) PanelCombined(unit *types.Unit) (types.ConflictSet, types.HistorySet) {
	var clashes types.ConflictSet
	var histories types.HistorySet
	for _, adjID := range unit.Adjudicators.IDs() {
		if set, ok := ix.ConflictsFor(types.SubjectAdjudicator, adjID); ok {
			clashes.Merge(set)
		}
		if set, ok := ix.HistoriesFor(types.SubjectAdjudicator, adjID); ok {
			histories.Merge(set)
		}
	}

	return clashes, histories
}
