package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Antigravity-finder/tabbycat/types"
)

func TestStore_UnassignedItems(t *testing.T) {
	t.Parallel()

	t.Run("seated items are excluded", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		var ids []int64
		for _, item := range s.UnassignedItems() {
			ids = append(ids, item.ID)
		}

		// 7, 8 and 9 are seated; 42 and 43 float
		require.NotContains(t, ids, int64(7))
		require.NotContains(t, ids, int64(8))
		require.NotContains(t, ids, int64(9))
		require.Contains(t, ids, int64(42))
		require.Contains(t, ids, int64(43))
	})

	t.Run("ordered by last drag, ties by id", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		items := s.UnassignedItems()
		require.Equal(t, int64(43), items[0].ID, "last modified 200 first")
		require.Equal(t, int64(42), items[1].ID)

		s.TouchItems([]int64{42}, time.Unix(300, 0))
		items = s.UnassignedItems()
		require.Equal(t, int64(42), items[0].ID)
	})

	t.Run("scans beyond the current shard", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		// restrict the view to shard 0 of 3; item 9 is seated in unit 3,
		// which lands in another shard, but it must stay excluded
		idx := 0
		s.SetSharding(types.ShardingConfig{
			Split: 3, Mix: types.MixSequential, Sort: types.SortRoomRank, Index: &idx,
		})
		require.Len(t, s.ShardedUnits(), 1)

		for _, item := range s.UnassignedItems() {
			require.NotEqual(t, int64(9), item.ID)
		}
	})
}

func TestStore_DuplicateAssignments(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.Empty(t, s.DuplicateAssignments())

	// seat 7 in a second unit without removing it from the first
	require.NoError(t, s.ApplyUnitDiffs([]types.UnitDiff{
		{ID: 2, Adjudicators: types.RoleMap{
			types.RoleChair: {7}, types.RolePanellist: {}, types.RoleTrainee: {},
		}},
	}))

	require.Equal(t, []int64{7}, s.DuplicateAssignments())
}

func TestStore_UnknownAssignedItems(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.Empty(t, s.UnknownAssignedItems())

	require.NoError(t, s.ApplyUnitDiffs([]types.UnitDiff{
		{ID: 2, Adjudicators: types.RoleMap{
			types.RoleChair: {7777}, types.RolePanellist: {}, types.RoleTrainee: {},
		}},
	}))

	require.Equal(t, []int64{7777}, s.UnknownAssignedItems())
}

func TestStore_AllTeams(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	teams := s.AllTeams()
	require.Len(t, teams, 4)
	require.Equal(t, 3.0, teams[101].Points)
}

func TestStore_HighlightClasses(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	t.Run("overlap classes follow input pk order", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, []string{"break-0"}, s.OverlapClasses("break", []int64{1, 404}))
		require.Nil(t, s.OverlapClasses("nope", []int64{1}))
	})

	t.Run("order class picks the first met cutoff", func(t *testing.T) {
		t.Parallel()
		// rank cutoffs are 4 then 2 in payload order
		require.Equal(t, "rank-0", s.OrderClass("rank", 5))
		require.Equal(t, "rank-1", s.OrderClass("rank", 3))
		require.Equal(t, "", s.OrderClass("rank", 1))
		require.Equal(t, "", s.OrderClass("nope", 5))
	})

	t.Run("region class resolves via the institution", func(t *testing.T) {
		t.Parallel()
		// institution 6 sits in region 2, the second region option
		require.Equal(t, "region-1", s.RegionClass(6))
		require.Equal(t, "", s.RegionClass(404))
	})
}

func TestStore_ConflictViews(t *testing.T) {
	t.Parallel()

	payload := testPayload()
	payload.Extra.Clashes = types.ClashTable{
		types.SubjectAdjudicator: {
			7: {Adjudicator: []types.ConflictRef{{ID: 9}}},
		},
	}
	s := New(nil, nil)
	require.NoError(t, s.LoadInitial(payload))

	t.Run("clash against a co-panellist", func(t *testing.T) {
		t.Parallel()
		// hypothetically seating 7 in unit 3, where 9 chairs
		report := s.ConflictReportFor(7, 3)
		require.Equal(t, types.SeverityClash, report.Severity)
	})

	t.Run("no conflict on the home unit", func(t *testing.T) {
		t.Parallel()
		report := s.ConflictReportFor(7, 1)
		require.Equal(t, types.SeverityNone, report.Severity)
	})
}
