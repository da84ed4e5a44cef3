// Package conflict provides the read-only conflict index: precomputed clash
// and prior-meeting records loaded once at session start, plus the evaluation
// rules that decide whether a candidate pairing is conflicted and how
// severely.
//
// Severity resolution order is clash > institutional overlap > history; the
// first true rule wins for display. The lowest rounds-ago distance is kept as
// a tiebreaker within history conflicts, and occurrence counts are aggregated
// as a secondary signal.
package conflict
