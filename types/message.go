package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Banner is a user-facing notice piggybacked on a broadcast, e.g. the result
// summary of a server-computed allocation run.
type Banner struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnitDiff is a partial update to one unit, keyed by id. Fields left nil are
// absent from the diff and must not touch the stored unit; merges are
// idempotent and order-independent per field.
type UnitDiff struct {
	ID int64

	// Adjudicators replaces the whole role map when present. A diff carrying
	// an adjudicator map is considered a replacement payload: it can insert a
	// previously unseen unit (server-created panels).
	Adjudicators RoleMap

	// Teams replaces the team-slot map when present (TeamsSet distinguishes
	// an explicit empty map from absence).
	Teams    map[string]*Team
	TeamsSet bool

	Importance *float64
	Bracket    *float64
	BracketMin *float64
	BracketMax *float64
	RoomRank   *int
	Venue      *int64
}

// IsReplacement reports whether the diff carries enough payload to insert a
// brand-new unit. Diffs without a replacement payload that reference an
// unknown id signal a stale view.
func (d UnitDiff) IsReplacement() bool {
	return d.Adjudicators != nil
}

// InferKind derives the unit variant for an inserted unit: payloads carrying
// team slots or a bracket range are debates, everything else is a panel.
// Used only at the decode boundary; in-memory dispatch is on Unit.Kind.
func (d UnitDiff) InferKind() UnitKind {
	if d.TeamsSet || d.BracketMin != nil || d.BracketMax != nil {
		return KindDebate
	}

	return KindPanel
}

// MarshalJSON emits only the fields present in the diff.
func (d UnitDiff) MarshalJSON() ([]byte, error) {
	out := map[string]any{"id": d.ID}
	if d.Adjudicators != nil {
		out["adjudicators"] = d.Adjudicators
	}
	if d.TeamsSet {
		out["teams"] = d.Teams
	}
	if d.Importance != nil {
		out["importance"] = *d.Importance
	}
	if d.Bracket != nil {
		out["bracket"] = *d.Bracket
	}
	if d.BracketMin != nil {
		out["bracket_min"] = *d.BracketMin
	}
	if d.BracketMax != nil {
		out["bracket_max"] = *d.BracketMax
	}
	if d.RoomRank != nil {
		out["room_rank"] = *d.RoomRank
	}
	if d.Venue != nil {
		out["venue"] = *d.Venue
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a diff, tolerating numeric fields sent as strings
// (the backend serializes importance as "0").
func (d *UnitDiff) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := looseInt(raw["id"])
	if err != nil {
		return fmt.Errorf("unit diff id: %w", err)
	}
	d.ID = id

	if v, ok := raw["adjudicators"]; ok {
		if err := json.Unmarshal(v, &d.Adjudicators); err != nil {
			return fmt.Errorf("unit diff adjudicators: %w", err)
		}
	}
	if v, ok := raw["teams"]; ok {
		if err := json.Unmarshal(v, &d.Teams); err != nil {
			return fmt.Errorf("unit diff teams: %w", err)
		}
		d.TeamsSet = true
	}
	if d.Importance, err = looseFloatPtr(raw, "importance"); err != nil {
		return err
	}
	if d.Bracket, err = looseFloatPtr(raw, "bracket"); err != nil {
		return err
	}
	if d.BracketMin, err = looseFloatPtr(raw, "bracket_min"); err != nil {
		return err
	}
	if d.BracketMax, err = looseFloatPtr(raw, "bracket_max"); err != nil {
		return err
	}
	if v, ok := raw["room_rank"]; ok {
		n, err := looseInt(v)
		if err != nil {
			return fmt.Errorf("unit diff room_rank: %w", err)
		}
		rank := int(n)
		d.RoomRank = &rank
	}
	if v, ok := raw["venue"]; ok {
		n, err := looseInt(v)
		if err != nil {
			return fmt.Errorf("unit diff venue: %w", err)
		}
		d.Venue = &n
	}

	return nil
}

// ItemDiff is a partial update to one allocatable item. Diffs for unknown
// item ids are silently dropped; items are never created client-side.
type ItemDiff struct {
	ID           int64    `json:"id"`
	LastModified *int64   `json:"vue_last_modified,omitempty"`
	Score        *float64 `json:"score,omitempty"`
}

// Envelope is the parsed form of one broadcast payload: either an error shape
// addressed to a specific originator, or a diff shape carrying attribute
// groups, an optional banner, and the originator's component id.
type Envelope struct {
	// ComponentID tags the originating client; HasComponentID distinguishes
	// an absent tag from component id zero.
	ComponentID    int64
	HasComponentID bool

	// Groups maps attribute key ("adjudicators", "importance",
	// "debatesOrPanels", ...) to the per-unit changes sent under it.
	Groups map[string][]UnitDiff

	Banner *Banner

	// Action names a server-computed operation to trigger, with its settings.
	Action   string
	Settings map[string]any

	// IsError marks an error shape; Error and ErrorMessage carry its text and
	// ComponentID the originator it is addressed to.
	IsError      bool
	Error        string
	ErrorMessage string
}

// reserved top-level keys that are not diff groups.
var reservedKeys = map[string]struct{}{
	"componentID":  {},
	"component_id": {},
	"message":      {},
	"action":       {},
	"settings":     {},
	"error":        {},
}

// ParseEnvelope decodes one raw broadcast payload.
//
// Error-shaped payloads ({error, message, component_id}) are flagged IsError.
// Otherwise every non-reserved top-level key holding an array is treated as a
// diff group mirroring the outbound format.
//
// Parameters:
//   - data: Raw message bytes
//
// Returns:
//   - *Envelope: Parsed envelope
//   - error: Parse error for malformed payloads (caller discards the payload)
func ParseEnvelope(data []byte) (*Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed broadcast payload: %w", err)
	}

	env := &Envelope{}

	if v, ok := raw["error"]; ok {
		env.IsError = true
		if err := json.Unmarshal(v, &env.Error); err != nil {
			return nil, fmt.Errorf("error payload: %w", err)
		}
		if v, ok := raw["message"]; ok {
			if err := json.Unmarshal(v, &env.ErrorMessage); err != nil {
				return nil, fmt.Errorf("error payload message: %w", err)
			}
		}
		if v, ok := raw["component_id"]; ok {
			id, err := looseInt(v)
			if err != nil {
				return nil, fmt.Errorf("error payload component_id: %w", err)
			}
			env.ComponentID = id
			env.HasComponentID = true
		}

		return env, nil
	}

	if v, ok := raw["componentID"]; ok {
		id, err := looseInt(v)
		if err != nil {
			return nil, fmt.Errorf("componentID: %w", err)
		}
		env.ComponentID = id
		env.HasComponentID = true
	}
	if v, ok := raw["message"]; ok {
		env.Banner = &Banner{}
		if err := json.Unmarshal(v, env.Banner); err != nil {
			return nil, fmt.Errorf("banner message: %w", err)
		}
	}
	if v, ok := raw["action"]; ok {
		if err := json.Unmarshal(v, &env.Action); err != nil {
			return nil, fmt.Errorf("action: %w", err)
		}
		if v, ok := raw["settings"]; ok {
			if err := json.Unmarshal(v, &env.Settings); err != nil {
				return nil, fmt.Errorf("action settings: %w", err)
			}
		}
	}

	for key, v := range raw {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		if len(v) == 0 || v[0] != '[' {
			continue
		}
		var diffs []UnitDiff
		if err := json.Unmarshal(v, &diffs); err != nil {
			return nil, fmt.Errorf("diff group %q: %w", key, err)
		}
		if env.Groups == nil {
			env.Groups = make(map[string][]UnitDiff)
		}
		env.Groups[key] = diffs
	}

	return env, nil
}

// MarshalJSON encodes the envelope in the outbound wire format:
// { <attributeKey>: [...], componentID } for diffs,
// { action, settings, component_id } for action triggers.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Groups)+2)
	for key, diffs := range e.Groups {
		out[key] = diffs
	}
	if e.Action != "" {
		out["action"] = e.Action
		out["settings"] = e.Settings
	}
	if e.HasComponentID {
		out["componentID"] = e.ComponentID
	}

	return json.Marshal(out)
}

// looseInt decodes an integer that may be sent as a number or quoted string.
func looseInt(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing value")
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}

	return strconv.ParseInt(s, 10, 64)
}

// looseFloatPtr decodes an optional float that may be sent as a number or
// quoted string, returning nil when the key is absent.
func looseFloatPtr(raw map[string]json.RawMessage, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("unit diff %s: not a number: %s", key, v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("unit diff %s: %w", key, err)
	}

	return &f, nil
}
