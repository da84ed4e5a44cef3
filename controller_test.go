package tabbycat

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/Antigravity-finder/tabbycat/internal/clock"
	tabtest "github.com/Antigravity-finder/tabbycat/testing"
	"github.com/Antigravity-finder/tabbycat/types"
)

func int64Ptr(v int64) *int64 { return &v }

func samplePayload() *InitialPayload {
	return &InitialPayload{
		Round:      &types.Round{ID: 1, Seq: 3, Slug: "3"},
		Tournament: &types.Tournament{ID: 1, Slug: "testtournament"},
		Units: []*Unit{
			{ID: 1, Kind: types.KindDebate, RoomRank: 1,
				Adjudicators: RoleMap{RoleChair: {7}, RolePanellist: {}, RoleTrainee: {}},
				Teams: map[string]*Team{
					"aff": {ID: 101, Institution: 5, Points: 3},
					"neg": {ID: 102, Institution: 6, Points: 2},
				}},
			{ID: 2, Kind: types.KindDebate, RoomRank: 2,
				Adjudicators: RoleMap{RoleChair: {}, RolePanellist: {42}, RoleTrainee: {}}},
			{ID: 3, Kind: types.KindPanel, RoomRank: 3,
				Adjudicators: RoleMap{RoleChair: {9}, RolePanellist: {8}, RoleTrainee: {}}},
		},
		AllocatableItems: []*Item{
			{ID: 7, Name: "Chair One"},
			{ID: 8, Name: "Panellist"},
			{ID: 9, Name: "Chair Two"},
			{ID: 42, Name: "Floater"},
			{ID: 43, Name: "Idler"},
		},
	}
}

// newTestController starts a controller whose channel never reaches a server:
// the dialer always fails and the fake clock keeps reconnects from firing, so
// every broadcast just queues. Gesture semantics are fully observable through
// the store.
func newTestController(t *testing.T, hooks *Hooks) *Controller {
	t.Helper()

	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	dial := func(string, ...nats.Option) (*nats.Conn, error) {
		return nil, fmt.Errorf("dial tcp: connection refused")
	}

	opts := []Option{
		WithClock(clk),
		WithDialer(dial),
		WithComponentID(1),
	}
	if hooks != nil {
		opts = append(opts, WithHooks(hooks))
	}
	ctrl, err := New(TestConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	require.NoError(t, ctrl.Start(t.Context(), samplePayload()))

	return ctrl
}

func allocationOf(t *testing.T, ctrl *Controller, unitID int64) RoleMap {
	t.Helper()

	alloc, err := ctrl.Store().Allocation(unitID)
	require.NoError(t, err)

	return alloc
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("invalid channel config is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Topic: "debates"})
		require.Error(t, err)
	})

	t.Run("start is not repeatable", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)
		require.ErrorIs(t, ctrl.Start(t.Context(), samplePayload()), ErrAlreadyStarted)
	})
}

func TestController_MoveItem(t *testing.T) {
	t.Parallel()

	t.Run("pool to empty chair", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.NoError(t, ctrl.MoveItem(
			DragSource{ItemID: 43},
			DropTarget{Assignment: int64Ptr(2), Position: RoleChair},
		))

		require.Equal(t, []int64{43}, allocationOf(t, ctrl, 2)[RoleChair])
	})

	t.Run("unit to pool", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.NoError(t, ctrl.MoveItem(
			DragSource{ItemID: 42, Assignment: int64Ptr(2), Position: RolePanellist},
			DropTarget{},
		))

		require.Empty(t, allocationOf(t, ctrl, 2)[RolePanellist])
		var poolIDs []int64
		for _, item := range ctrl.Store().UnassignedItems() {
			poolIDs = append(poolIDs, item.ID)
		}
		require.Contains(t, poolIDs, int64(42))
	})

	t.Run("occupied chair evicts back to the drag origin", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		// 42 leaves its panellist seat in unit 2 for unit 1's chair, which 7
		// holds; 7 relocates to the vacated origin seat
		require.NoError(t, ctrl.MoveItem(
			DragSource{ItemID: 42, Assignment: int64Ptr(2), Position: RolePanellist},
			DropTarget{Assignment: int64Ptr(1), Position: RoleChair},
		))

		require.Equal(t, []int64{42}, allocationOf(t, ctrl, 1)[RoleChair])
		require.Equal(t, []int64{7}, allocationOf(t, ctrl, 2)[RolePanellist])
	})

	t.Run("occupied chair evicts to the pool for pool-origin drags", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.NoError(t, ctrl.MoveItem(
			DragSource{ItemID: 43},
			DropTarget{Assignment: int64Ptr(1), Position: RoleChair},
		))

		require.Equal(t, []int64{43}, allocationOf(t, ctrl, 1)[RoleChair])
		var poolIDs []int64
		for _, item := range ctrl.Store().UnassignedItems() {
			poolIDs = append(poolIDs, item.ID)
		}
		require.Contains(t, poolIDs, int64(7), "displaced chair falls back to the pool")
	})

	t.Run("position change within one unit", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.NoError(t, ctrl.MoveItem(
			DragSource{ItemID: 8, Assignment: int64Ptr(3), Position: RolePanellist},
			DropTarget{Assignment: int64Ptr(3), Position: RoleTrainee},
		))

		alloc := allocationOf(t, ctrl, 3)
		require.Empty(t, alloc[RolePanellist])
		require.Equal(t, []int64{8}, alloc[RoleTrainee])
		require.Equal(t, []int64{9}, alloc[RoleChair], "the rest of the panel is untouched")
	})

	t.Run("whole-panel drag clears the panel", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.NoError(t, ctrl.MoveItem(
			DragSource{Panel: int64Ptr(3)},
			DropTarget{},
		))

		alloc := allocationOf(t, ctrl, 3)
		require.Empty(t, alloc[RoleChair])
		require.Empty(t, alloc[RolePanellist])
		require.Empty(t, alloc[RoleTrainee])
	})

	t.Run("same seat drop is a no-op", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)
		before := allocationOf(t, ctrl, 1)

		require.NoError(t, ctrl.MoveItem(
			DragSource{ItemID: 7, Assignment: int64Ptr(1), Position: RoleChair},
			DropTarget{Assignment: int64Ptr(1), Position: RoleChair},
		))

		require.Equal(t, before, allocationOf(t, ctrl, 1))
	})

	t.Run("stale drop target aborts the whole gesture", func(t *testing.T) {
		t.Parallel()

		var staleID atomic.Int64
		ctrl := newTestController(t, &Hooks{
			OnStaleView: func(unitID int64) { staleID.Store(unitID) },
		})

		err := ctrl.MoveItem(
			DragSource{ItemID: 7, Assignment: int64Ptr(1), Position: RoleChair},
			DropTarget{Assignment: int64Ptr(404), Position: RoleChair},
		)

		require.ErrorIs(t, err, ErrStaleGesture)
		require.Equal(t, int64(404), staleID.Load())
		require.Equal(t, []int64{7}, allocationOf(t, ctrl, 1)[RoleChair], "origin is untouched")
	})
}

func TestController_SwapPanels(t *testing.T) {
	t.Parallel()

	t.Run("exchanges full allocations", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.NoError(t, ctrl.SwapPanels(1, 3))

		require.Equal(t, []int64{9}, allocationOf(t, ctrl, 1)[RoleChair])
		require.Equal(t, []int64{8}, allocationOf(t, ctrl, 1)[RolePanellist])
		require.Equal(t, []int64{7}, allocationOf(t, ctrl, 3)[RoleChair])
	})

	t.Run("unknown unit aborts without touching either side", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		require.ErrorIs(t, ctrl.SwapPanels(1, 404), ErrStaleGesture)
		require.Equal(t, []int64{7}, allocationOf(t, ctrl, 1)[RoleChair])
	})
}

func TestController_RunAction(t *testing.T) {
	t.Parallel()

	var loading atomic.Bool
	ctrl := newTestController(t, &Hooks{
		OnLoadingChanged: func(l bool) { loading.Store(l) },
	})

	require.NoError(t, ctrl.RunAction("allocate_debate_adjs", map[string]any{"usePreformedPanels": false}))
	require.True(t, ctrl.Store().Loading())
	require.True(t, loading.Load())
}

func TestController_Receive(t *testing.T) {
	t.Parallel()

	t.Run("peer diffs land in the store", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)

		ctrl.receive("debates", &Envelope{
			Groups: map[string][]UnitDiff{
				"adjudicators": {{ID: 2, Adjudicators: RoleMap{
					RoleChair: {9}, RolePanellist: {42}, RoleTrainee: {},
				}}},
			},
		})

		require.Equal(t, []int64{9}, allocationOf(t, ctrl, 2)[RoleChair])
	})

	t.Run("banner resets the loading flag", func(t *testing.T) {
		t.Parallel()

		var kind, text atomic.Value
		ctrl := newTestController(t, &Hooks{
			OnBanner: func(k, tx string) { kind.Store(k); text.Store(tx) },
		})
		ctrl.Store().SetLoading(true)

		ctrl.receive("debates", &Envelope{
			Banner: &Banner{Type: "success", Text: "Succesfully auto-allocated adjudicators"},
		})

		require.False(t, ctrl.Store().Loading())
		require.Equal(t, "success", kind.Load())
	})

	t.Run("unknown unit id raises the stale hook", func(t *testing.T) {
		t.Parallel()

		var staleID atomic.Int64
		ctrl := newTestController(t, &Hooks{
			OnStaleView: func(unitID int64) { staleID.Store(unitID) },
		})

		importance := 2.0
		ctrl.receive("debates", &Envelope{
			Groups: map[string][]UnitDiff{
				"importance": {{ID: 404, Importance: &importance}},
			},
		})

		require.Equal(t, int64(404), staleID.Load())
	})
}

func TestController_Save(t *testing.T) {
	t.Parallel()

	t.Run("posts the unit allocation and stamps the save", func(t *testing.T) {
		t.Parallel()

		var gotToken string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.Header.Get("X-CSRFToken")
			w.Write([]byte(`{"status": 200}`))
		}))
		defer srv.Close()

		cfg := TestConfig()
		cfg.Save.CSRFToken = "token123"
		clk := clock.NewFake(time.Unix(1_700_000_000, 0))
		dial := func(string, ...nats.Option) (*nats.Conn, error) {
			return nil, fmt.Errorf("dial tcp: connection refused")
		}
		ctrl, err := New(cfg, WithClock(clk), WithDialer(dial))
		require.NoError(t, err)
		t.Cleanup(ctrl.Close)
		require.NoError(t, ctrl.Start(t.Context(), samplePayload()))

		require.NoError(t, ctrl.Save(t.Context(), srv.URL, 1))
		require.Equal(t, "token123", gotToken)
		require.Equal(t, time.Unix(1_700_000_000, 0), ctrl.Store().LastSaved())
	})

	t.Run("unknown unit aborts before the request", func(t *testing.T) {
		t.Parallel()
		ctrl := newTestController(t, nil)
		require.ErrorIs(t, ctrl.Save(t.Context(), "http://localhost:1", 404), ErrStaleGesture)
	})
}

func TestController_Convergence(t *testing.T) {
	t.Parallel()
	ns, _ := tabtest.StartEmbeddedNATS(t)

	newLiveController := func(t *testing.T, componentID int64) *Controller {
		t.Helper()
		cfg := TestConfig()
		cfg.Channel.URL = ns.ClientURL()
		ctrl, err := New(cfg, WithComponentID(componentID))
		require.NoError(t, err)
		t.Cleanup(ctrl.Close)
		require.NoError(t, ctrl.Start(t.Context(), samplePayload()))

		return ctrl
	}

	alice := newLiveController(t, 1)
	bob := newLiveController(t, 2)

	require.NoError(t, alice.MoveItem(
		DragSource{ItemID: 43},
		DropTarget{Assignment: int64Ptr(2), Position: RoleChair},
	))

	require.Eventually(t, func() bool {
		alloc, err := bob.Store().Allocation(2)
		if err != nil {
			return false
		}

		return len(alloc[RoleChair]) == 1 && alloc[RoleChair][0] == 43
	}, 5*time.Second, 10*time.Millisecond, "peer never converged on the move")

	// the sender's own state was applied locally, not via echo
	require.Equal(t, []int64{43}, allocationOf(t, alice, 2)[RoleChair])
}

func TestController_ClaimShard(t *testing.T) {
	t.Parallel()
	ns, _ := tabtest.StartEmbeddedNATS(t)

	newLiveController := func(t *testing.T, componentID int64) *Controller {
		t.Helper()
		cfg := TestConfig()
		cfg.Channel.URL = ns.ClientURL()
		cfg.Channel.RoundSlug = "claimround"
		ctrl, err := New(cfg, WithComponentID(componentID))
		require.NoError(t, err)
		t.Cleanup(ctrl.Close)
		require.NoError(t, ctrl.Start(t.Context(), samplePayload()))

		return ctrl
	}

	alice := newLiveController(t, 1)
	bob := newLiveController(t, 2)

	shardCfg := ShardingConfig{Split: 2, Mix: MixSequential, Sort: SortRoomRank}

	idxA, err := alice.ClaimShard(t.Context(), shardCfg)
	require.NoError(t, err)
	require.Equal(t, 0, idxA)

	idxB, err := bob.ClaimShard(t.Context(), shardCfg)
	require.NoError(t, err)
	require.Equal(t, 1, idxB)

	// each editor now displays a disjoint slice of the draw
	aliceUnits := alice.Store().ShardedUnits()
	bobUnits := bob.Store().ShardedUnits()
	require.NotEmpty(t, aliceUnits)
	require.NotEmpty(t, bobUnits)
	seen := make(map[int64]bool)
	for _, u := range aliceUnits {
		seen[u.ID] = true
	}
	for _, u := range bobUnits {
		require.False(t, seen[u.ID], "unit %d appears in both shards", u.ID)
	}
}
