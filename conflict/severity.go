package conflict

import (
	"github.com/Antigravity-finder/tabbycat/types"
)

// noHistory is the rounds-ago sentinel meaning "no matching history found".
const noHistory = 99

// EvaluateAdjudicator classifies the conflicts of placing (or keeping) an
// adjudicator on a unit's panel.
//
// Rules, first true wins:
//   - clash: a recorded adjudicator clash sits on the panel, or a recorded
//     team clash occupies one of the unit's team slots
//   - institutional: a clashed institution overlaps another panellist's
//     institutional clashes (the candidate itself excluded) or an occupied
//     team slot's
//   - history: a prior meeting with a panellist (preferred) or a seated team,
//     reported with the smallest rounds-ago distance
//
// Parameters:
//   - adjID: Candidate adjudicator id
//   - unit: Unit whose panel and team slots to check against
//
// Returns:
//   - types.ConflictReport: Severity, closest history distance, and the
//     maximum meeting count with any single panel member or team
func (ix *Index) EvaluateAdjudicator(adjID int64, unit *types.Unit) types.ConflictReport {
	report := types.ConflictReport{Ago: noHistory}
	if unit == nil {
		report.Ago = 0
		return report
	}

	clashes, _ := ix.ConflictsFor(types.SubjectAdjudicator, adjID)
	histories, _ := ix.HistoriesFor(types.SubjectAdjudicator, adjID)

	report.Occurrences = max(
		countMeetings(histories.Adjudicator, func(id int64) bool {
			return IsPresentIn(id, unit.Adjudicators, types.NoExclude)
		}),
		countMeetings(histories.Team, func(id int64) bool {
			return TeamInTeams(id, unit.Teams)
		}),
	)

	if ix.adjudicatorHasClash(clashes, unit) {
		report.Severity = types.SeverityClash
		return report
	}
	if ix.adjudicatorHasInstitutional(clashes, adjID, unit) {
		report.Severity = types.SeverityInstitutional
		return report
	}

	// Panel history takes precedence over team history for the reported
	// distance.
	ago := smallestAgo(histories.Adjudicator, func(id int64) bool {
		return IsPresentIn(id, unit.Adjudicators, types.NoExclude)
	})
	if ago == noHistory {
		ago = smallestAgo(histories.Team, func(id int64) bool {
			return TeamInTeams(id, unit.Teams)
		})
	}
	if ago != noHistory {
		report.Severity = types.SeverityHistory
		report.Ago = ago
	}

	return report
}

// EvaluateTeam classifies the conflicts of a seated team against the unit's
// current panel.
//
// Parameters:
//   - teamID: Team occupying one of the unit's slots
//   - unit: Unit whose panel to check against
//
// Returns:
//   - types.ConflictReport: Severity, closest history distance, and the
//     maximum meeting count with any single panellist
func (ix *Index) EvaluateTeam(teamID int64, unit *types.Unit) types.ConflictReport {
	report := types.ConflictReport{Ago: noHistory}
	if unit == nil {
		report.Ago = 0
		return report
	}

	clashes, _ := ix.ConflictsFor(types.SubjectTeam, teamID)
	histories, _ := ix.HistoriesFor(types.SubjectTeam, teamID)

	report.Occurrences = countMeetings(histories.Adjudicator, func(id int64) bool {
		return IsPresentIn(id, unit.Adjudicators, types.NoExclude)
	})

	for _, ref := range clashes.Adjudicator {
		if IsPresentIn(ref.ID, unit.Adjudicators, types.NoExclude) {
			report.Severity = types.SeverityClash
			return report
		}
	}
	for _, ref := range clashes.Institution {
		if ix.InstitutionInPanel(ref.ID, unit.Adjudicators, types.NoExclude) {
			report.Severity = types.SeverityInstitutional
			return report
		}
	}

	ago := smallestAgo(histories.Adjudicator, func(id int64) bool {
		return IsPresentIn(id, unit.Adjudicators, types.NoExclude)
	})
	if ago != noHistory {
		report.Severity = types.SeverityHistory
		report.Ago = ago
	}

	return report
}

func (ix *Index) adjudicatorHasClash(clashes types.ConflictSet, unit *types.Unit) bool {
	for _, ref := range clashes.Adjudicator {
		if IsPresentIn(ref.ID, unit.Adjudicators, types.NoExclude) {
			return true
		}
	}
	for _, ref := range clashes.Team {
		if TeamInTeams(ref.ID, unit.Teams) {
			return true
		}
	}

	return false
}

func (ix *Index) adjudicatorHasInstitutional(clashes types.ConflictSet, adjID int64, unit *types.Unit) bool {
	for _, ref := range clashes.Institution {
		if ix.InstitutionInPanel(ref.ID, unit.Adjudicators, adjID) {
			return true
		}
		if ix.InstitutionInTeams(ref.ID, unit.Teams) {
			return true
		}
	}

	return false
}

// smallestAgo returns the lowest rounds-ago distance among matching entries,
// or noHistory when none match.
func smallestAgo(refs []types.HistoryRef, matches func(id int64) bool) int {
	smallest := noHistory
	for _, ref := range refs {
		if matches(ref.ID) && ref.Ago < smallest {
			smallest = ref.Ago
		}
	}

	return smallest
}

// countMeetings returns the highest per-target meeting count among matching
// entries. Repeated entries for the same target each count once.
func countMeetings(refs []types.HistoryRef, matches func(id int64) bool) int {
	counts := make(map[int64]int)
	best := 0
	for _, ref := range refs {
		if !matches(ref.ID) {
			continue
		}
		counts[ref.ID]++
		if counts[ref.ID] > best {
			best = counts[ref.ID]
		}
	}

	return best
}
