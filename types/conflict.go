package types

// SubjectKind identifies which table a conflict subject belongs to.
type SubjectKind string

const (
	// SubjectAdjudicator keys conflicts recorded against an adjudicator.
	SubjectAdjudicator SubjectKind = "adjudicators"

	// SubjectTeam keys conflicts recorded against a team.
	SubjectTeam SubjectKind = "teams"
)

// ConflictRef names one target of a conflict record.
type ConflictRef struct {
	ID int64 `json:"id"`
}

// ConflictSet groups a subject's hard clashes by target kind.
//
// Conflict records are derived from the authoritative backend, loaded once at
// session start and never written here.
type ConflictSet struct {
	Adjudicator []ConflictRef `json:"adjudicator"`
	Team        []ConflictRef `json:"team"`
	Institution []ConflictRef `json:"institution"`
}

// Merge appends every entry of other into the set. Used when aggregating the
// combined conflicts of a whole panel.
func (s *ConflictSet) Merge(other ConflictSet) {
	s.Adjudicator = append(s.Adjudicator, other.Adjudicator...)
	s.Team = append(s.Team, other.Team...)
	s.Institution = append(s.Institution, other.Institution...)
}

// HistoryRef names one target of a prior-meeting record together with how many
// rounds ago the meeting happened.
type HistoryRef struct {
	ID  int64 `json:"id"`
	Ago int   `json:"ago"`
}

// HistorySet groups a subject's prior-meeting records by target kind.
type HistorySet struct {
	Adjudicator []HistoryRef `json:"adjudicator"`
	Team        []HistoryRef `json:"team"`
}

// Merge appends every entry of other into the set.
func (s *HistorySet) Merge(other HistorySet) {
	s.Adjudicator = append(s.Adjudicator, other.Adjudicator...)
	s.Team = append(s.Team, other.Team...)
}

// Severity ranks how serious a detected conflict is. When multiple kinds
// apply to one pairing the highest severity wins for display purposes.
type Severity int

const (
	// SeverityNone means no conflict was detected.
	SeverityNone Severity = iota

	// SeverityHistory means the pair has met in a previous round.
	SeverityHistory

	// SeverityInstitutional means an institutional overlap exists.
	SeverityInstitutional

	// SeverityClash means a hard conflict-of-interest is recorded.
	SeverityClash
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityHistory:
		return "history"
	case SeverityInstitutional:
		return "institutional"
	case SeverityClash:
		return "clash"
	default:
		return "unknown"
	}
}

// ConflictReport is the result of evaluating one candidate pairing.
type ConflictReport struct {
	// Severity is the highest-ranked conflict kind that applies.
	Severity Severity

	// Ago is the smallest rounds-ago distance among matching history records.
	// Only meaningful when a history conflict applies.
	Ago int

	// Occurrences is the highest number of times the candidate crossed paths
	// with any single member of the pairing. A secondary signal, not part of
	// the severity classification.
	Occurrences int
}
