package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleMap(t *testing.T) {
	t.Parallel()

	t.Run("Clone does not alias occupant slices", func(t *testing.T) {
		t.Parallel()

		m := RoleMap{RoleChair: {1}, RolePanellist: {2, 3}}
		c := m.Clone()
		c.Add(RolePanellist, 4)
		c.Remove(RoleChair, 1)

		require.Equal(t, []int64{1}, m[RoleChair])
		require.Equal(t, []int64{2, 3}, m[RolePanellist])
	})

	t.Run("Contains honors the exclusion", func(t *testing.T) {
		t.Parallel()

		m := RoleMap{RoleChair: {1}, RolePanellist: {2}}
		require.True(t, m.Contains(2, NoExclude))
		require.False(t, m.Contains(2, 2))
		require.True(t, m.Contains(1, 2))
	})

	t.Run("IDs lists occupants in role order", func(t *testing.T) {
		t.Parallel()

		m := RoleMap{RoleTrainee: {9}, RoleChair: {1}, RolePanellist: {4, 5}}
		require.Equal(t, []int64{1, 4, 5, 9}, m.IDs())
	})

	t.Run("DedupChair keeps the first occupant", func(t *testing.T) {
		t.Parallel()

		m := RoleMap{RoleChair: {7, 42, 13}}
		displaced := m.DedupChair()

		require.Equal(t, []int64{42, 13}, displaced)
		require.Equal(t, []int64{7}, m[RoleChair])
	})

	t.Run("DedupChair is a no-op on a single chair", func(t *testing.T) {
		t.Parallel()

		m := RoleMap{RoleChair: {7}}
		require.Nil(t, m.DedupChair())
		require.Equal(t, []int64{7}, m[RoleChair])
	})
}

func TestUnit_BracketKeys(t *testing.T) {
	t.Parallel()

	t.Run("debate ranks by midpoint and tiebreaks by lower bound", func(t *testing.T) {
		t.Parallel()

		u := &Unit{Kind: KindDebate, BracketMin: 2, BracketMax: 4}
		require.Equal(t, 3.0, u.RankBracket())
		require.Equal(t, 2.0, u.TiebreakBracket())
	})

	t.Run("panel uses its single bracket for both keys", func(t *testing.T) {
		t.Parallel()

		u := &Unit{Kind: KindPanel, Bracket: 5}
		require.Equal(t, 5.0, u.RankBracket())
		require.Equal(t, 5.0, u.TiebreakBracket())
	})
}

func TestUnit_Clone(t *testing.T) {
	t.Parallel()

	u := &Unit{
		ID:           1,
		Kind:         KindDebate,
		Adjudicators: RoleMap{RoleChair: {5}},
		Teams: map[string]*Team{
			"aff": {ID: 10, Points: 3, BreakCategories: []int64{1}},
			"neg": nil,
		},
	}
	c := u.Clone()
	c.Adjudicators.Add(RoleChair, 6)
	c.Teams["aff"].Points = 99

	require.Equal(t, []int64{5}, u.Adjudicators[RoleChair])
	require.Equal(t, 3.0, u.Teams["aff"].Points)
	require.Nil(t, c.Teams["neg"])
}

func TestUnit_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("team payload decodes as a debate", func(t *testing.T) {
		t.Parallel()

		var u Unit
		err := u.UnmarshalJSON([]byte(`{
			"id": 7, "bracket_min": 2, "bracket_max": 4, "importance": "1",
			"adjudicators": {"C": [3], "P": [], "T": []},
			"teams": {"aff": {"id": 101, "institution": 5, "points": 3}}
		}`))
		require.NoError(t, err)
		require.Equal(t, KindDebate, u.Kind)
		require.Equal(t, int64(7), u.ID)
		require.Equal(t, 2.0, u.BracketMin)
		require.Equal(t, 1.0, u.Importance)
		require.Equal(t, []int64{3}, u.Adjudicators[RoleChair])
		require.Equal(t, int64(101), u.Teams["aff"].ID)
	})

	t.Run("bare payload decodes as a panel", func(t *testing.T) {
		t.Parallel()

		var u Unit
		err := u.UnmarshalJSON([]byte(`{"id": 8, "bracket": 5, "room_rank": 2}`))
		require.NoError(t, err)
		require.Equal(t, KindPanel, u.Kind)
		require.Equal(t, 5.0, u.Bracket)
		require.Equal(t, 2, u.RoomRank)
		require.NotNil(t, u.Adjudicators)
	})
}
