package types

import (
	"encoding/json"
	"fmt"
)

// ClashTable maps subject kind → subject id → the subject's hard clashes.
type ClashTable map[SubjectKind]map[int64]ConflictSet

// HistoryTable maps subject kind → subject id → the subject's prior meetings.
type HistoryTable map[SubjectKind]map[int64]HistorySet

// ExtraData is the auxiliary block of the initial load payload.
type ExtraData struct {
	Highlights map[string][]HighlightOption `json:"highlights"`
	Clashes    ClashTable                   `json:"clashes"`
	Histories  HistoryTable                 `json:"histories"`
}

// InitialPayload is the session-start snapshot delivered by the persistence
// backend. It is decoded once into the store; conflict records and
// institutions are immutable afterwards.
type InitialPayload struct {
	Round            *Round         `json:"round"`
	Tournament       *Tournament    `json:"tournament"`
	Extra            ExtraData      `json:"extra"`
	Units            []*Unit        `json:"debatesOrPanels"`
	AllocatableItems []*Item        `json:"allocatableItems"`
	Institutions     []*Institution `json:"institutions"`
}

// UnmarshalJSON decodes a unit from the load payload, assigning the variant
// tag at the boundary: payloads carrying team slots or a bracket range are
// debates, everything else is a panel.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := looseInt(raw["id"])
	if err != nil {
		return fmt.Errorf("unit id: %w", err)
	}
	u.ID = id

	if v, ok := raw["adjudicators"]; ok {
		if err := json.Unmarshal(v, &u.Adjudicators); err != nil {
			return fmt.Errorf("unit %d adjudicators: %w", id, err)
		}
	}
	if u.Adjudicators == nil {
		u.Adjudicators = EmptyRoleMap()
	}

	_, hasTeams := raw["teams"]
	_, hasBracketMin := raw["bracket_min"]
	if hasTeams || hasBracketMin {
		u.Kind = KindDebate
		if v, ok := raw["teams"]; ok {
			if err := json.Unmarshal(v, &u.Teams); err != nil {
				return fmt.Errorf("unit %d teams: %w", id, err)
			}
		}
		if u.BracketMin, err = looseFloat(raw, "bracket_min"); err != nil {
			return err
		}
		if u.BracketMax, err = looseFloat(raw, "bracket_max"); err != nil {
			return err
		}
	} else {
		u.Kind = KindPanel
		if u.Bracket, err = looseFloat(raw, "bracket"); err != nil {
			return err
		}
	}

	if u.Importance, err = looseFloat(raw, "importance"); err != nil {
		return err
	}
	if v, ok := raw["room_rank"]; ok {
		n, err := looseInt(v)
		if err != nil {
			return fmt.Errorf("unit %d room_rank: %w", id, err)
		}
		u.RoomRank = int(n)
	}
	if v, ok := raw["venue"]; ok {
		n, err := looseInt(v)
		if err != nil {
			return fmt.Errorf("unit %d venue: %w", id, err)
		}
		u.Venue = n
	}
	if v, ok := raw["liveness"]; ok {
		n, err := looseInt(v)
		if err != nil {
			return fmt.Errorf("unit %d liveness: %w", id, err)
		}
		u.Liveness = int(n)
		u.HasLiveness = true
	}

	return nil
}

// looseFloat decodes an optional float field, returning 0 when absent.
func looseFloat(raw map[string]json.RawMessage, key string) (float64, error) {
	ptr, err := looseFloatPtr(raw, key)
	if err != nil {
		return 0, err
	}
	if ptr == nil {
		return 0, nil
	}

	return *ptr, nil
}
